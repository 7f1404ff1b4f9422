package httpserver

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

func TestHandleMetrics_ExposesPrometheusTextFormat(t *testing.T) {
	s := newTestServer()
	s.ObserveMessage([]byte(`{}`), nil)
	s.DB.Receive(positionMessage(1, 10, 10), stream.Tag{})
	s.Stats.Observe(&ais.Message{}, stream.Tag{}, 0, 0, false)

	rr := httptest.NewRecorder()
	s.handleMetrics(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "aiscatcherd_messages_in_total")
	assert.Contains(t, body, "aiscatcherd_vessels_tracked 1")
}

func TestStatsCollector_CollectSkipsZeroCounters(t *testing.T) {
	stats := fakeVesselStats{snap: statsSnapshot{}}
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(newStatsCollector(stats)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families, "an all-zero snapshot should yield no samples")
}

func TestStatsCollector_CollectEmitsNonZeroCounters(t *testing.T) {
	snap := statsSnapshot{}
	snap.PerType[1] = 5
	snap.PerChannel[0] = 3
	stats := fakeVesselStats{snap: snap}
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(newStatsCollector(stats)))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "aiscatcherd_messages_by_type")
	assert.Contains(t, names, "aiscatcherd_messages_by_channel")
}

type fakeVesselStats struct{ snap statsSnapshot }

func (f fakeVesselStats) Snapshot() statsSnapshot { return f.snap }
func (fakeVesselStats) LevelMean() float64        { return 0 }
func (fakeVesselStats) PPMMean() float64          { return 0 }
