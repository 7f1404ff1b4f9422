package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

// statsAdapter narrows *vessel.Statistics to the vesselStats interface so
// statsCollector doesn't depend on vessel's full exported surface.
type statsAdapter struct{ s *vessel.Statistics }

func (a statsAdapter) Snapshot() statsSnapshot {
	snap := a.s.Snapshot()
	return statsSnapshot{PerType: snap.PerType, PerChannel: snap.PerChannel, LongestDistanceKm: snap.LongestDistanceKm}
}
func (a statsAdapter) LevelMean() float64 { return a.s.LevelMean() }
func (a statsAdapter) PPMMean() float64   { return a.s.PPMMean() }

// statsCollector bridges vessel.Statistics' per-type/per-channel arrays
// into Prometheus without duplicating them into a second counter set;
// Collect reads a fresh Snapshot() on every scrape.
type statsCollector struct {
	stats vesselStats

	perType    *prometheus.Desc
	perChannel *prometheus.Desc
}

// vesselStats is the subset of *vessel.Statistics this package depends on,
// kept narrow so metrics_test.go can fake it without building a real DB.
type vesselStats interface {
	Snapshot() statsSnapshot
	LevelMean() float64
	PPMMean() float64
}

type statsSnapshot struct {
	PerType           [28]uint64
	PerChannel        [4]uint64
	LongestDistanceKm float64
}

func newStatsCollector(s vesselStats) *statsCollector {
	return &statsCollector{
		stats:      s,
		perType:    prometheus.NewDesc("aiscatcherd_messages_by_type", "Messages observed per AIS message type.", []string{"type"}, nil),
		perChannel: prometheus.NewDesc("aiscatcherd_messages_by_channel", "Messages observed per AIS radio channel.", []string{"channel"}, nil),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.perType
	ch <- c.perChannel
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	for t, n := range snap.PerType {
		if n == 0 {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.perType, prometheus.CounterValue, float64(n), strconv.Itoa(t))
	}
	for i, n := range snap.PerChannel {
		if n == 0 {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.perChannel, prometheus.CounterValue, float64(n), string(rune('A'+i)))
	}
}

// newMetricsRegistry wires the spec §6 "/metrics" Prometheus text endpoint.
// Gauges read straight from the live Server state at scrape time rather
// than duplicating a second set of atomics.
func newMetricsRegistry(s *Server) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "aiscatcherd_messages_in_total",
		Help: "Messages routed through the pipeline since start.",
	}, func() float64 { return float64(s.messagesIn.Load()) }))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "aiscatcherd_bytes_in_total",
		Help: "Bytes of decoded message JSON routed since start.",
	}, func() float64 { return float64(s.bytesIn.Load()) }))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "aiscatcherd_vessels_tracked",
		Help: "Vessels currently held in the vessel database.",
	}, func() float64 { return float64(s.DB.Len()) }))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "aiscatcherd_uptime_seconds",
		Help: "Seconds since the server started.",
	}, func() float64 { return time.Since(s.startedAt).Seconds() }))

	if s.Stats != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aiscatcherd_signal_level_mean_db",
			Help: "Running mean of the receiver-reported signal level.",
		}, s.Stats.LevelMean))

		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aiscatcherd_clock_drift_ppm_mean",
			Help: "Running mean of the receiver-reported clock drift.",
		}, s.Stats.PPMMean))

		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aiscatcherd_longest_reception_km",
			Help: "Longest great-circle distance observed on any position fix.",
		}, func() float64 { return s.Stats.Snapshot().LongestDistanceKm }))

		reg.MustRegister(newStatsCollector(statsAdapter{s.Stats}))
	}

	return reg
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metricsHandler.ServeHTTP(w, r)
}
