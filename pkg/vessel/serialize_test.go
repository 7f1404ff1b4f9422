package vessel_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

func TestStatistics_SaveLoadRoundTrip(t *testing.T) {
	s := vessel.NewStatistics()
	var m ais.Message
	m.SetUint(0, 6, 1)
	m.Channel = 'A'
	s.Observe(&m, stream.Tag{Level: 15, HasLevel: true}, 42, 10, true)

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	loaded := vessel.NewStatistics()
	require.NoError(t, loaded.Load(&buf))

	assert.Equal(t, s.PerType, loaded.PerType)
	assert.Equal(t, s.LevelMin, loaded.LevelMin)
	assert.Equal(t, s.LongestDistanceKm, loaded.LongestDistanceKm)
	assert.Equal(t, s.RadarClassA, loaded.RadarClassA)
}

func TestStatistics_LoadRejectsBadMagic(t *testing.T) {
	loaded := vessel.NewStatistics()
	err := loaded.Load(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 0}))
	assert.Error(t, err)
}

func TestHistory_SaveLoadRoundTrip(t *testing.T) {
	h := vessel.NewHistory()
	h.Record(3)
	h.Record(7)

	var buf bytes.Buffer
	require.NoError(t, h.Save(&buf))

	loaded := vessel.NewHistory()
	require.NoError(t, loaded.Load(&buf))

	assert.Equal(t, h.Second.Snapshot(), loaded.Second.Snapshot())
	assert.Equal(t, h.Day.Snapshot(), loaded.Day.Snapshot())
}

func TestHistory_LoadTruncatedReturnsError(t *testing.T) {
	h := vessel.NewHistory()
	h.Record(1)

	var buf bytes.Buffer
	require.NoError(t, h.Save(&buf))
	truncated := buf.Bytes()[:buf.Len()-100]

	loaded := vessel.NewHistory()
	assert.Error(t, loaded.Load(bytes.NewReader(truncated)))
}

func TestDB_SaveLoadRoundTrip(t *testing.T) {
	db := vessel.NewDB(16, 0)
	db.Receive(positionMessage(1, 10, 20), stream.Tag{})
	db.Receive(positionMessage(2, -5, 100), stream.Tag{})

	var buf bytes.Buffer
	require.NoError(t, db.Save(&buf))

	loaded := vessel.NewDB(16, 0)
	require.NoError(t, loaded.Load(&buf))

	assert.Equal(t, 2, loaded.Len())
	v, ok := loaded.Get(1)
	require.True(t, ok)
	assert.InDelta(t, 10.0, v.Lat, 0.001)
	assert.InDelta(t, 20.0, v.Lon, 0.001)
}

func TestDB_LoadRejectsWrongMagic(t *testing.T) {
	loaded := vessel.NewDB(16, 0)
	err := loaded.Load(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}))
	assert.Error(t, err)
}
