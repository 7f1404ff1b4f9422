// Package httpserver implements the L8 HTTP surface from spec §4.8/§6:
// the JSON route table, SSE upgrades on three channels (messages,
// signal, log), a Prometheus /metrics endpoint, and a tile file store.
package httpserver

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aiscatcherd/aiscatcherd/internal/logger"
	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

// BuildInfo is the static version/driver metadata surfaced in
// /api/stat.json, mirroring the AIS-Catcher peer JSON driver/hardware
// fields (spec §6).
type BuildInfo struct {
	Version  int
	Driver   int
	Hardware string
}

// Server wires the vessel DB/history/statistics together with the
// logger's ring/SSE channel into the route table spec §6 names.
type Server struct {
	DB      *vessel.DB
	History *vessel.History
	Stats   *vessel.Statistics
	Logger  *logger.Logger
	Build   BuildInfo

	TilesDir string
	Gzip     bool

	startedAt time.Time

	messagesHub *sseHub
	signalHub   *sseHub

	messagesIn atomic.Uint64
	bytesIn    atomic.Uint64

	metricsHandler http.Handler
}

// New builds a Server; callers register its Handler() with an
// *http.Server or http.ListenAndServe.
func New(db *vessel.DB, hist *vessel.History, stats *vessel.Statistics, log *logger.Logger, build BuildInfo) *Server {
	s := &Server{
		DB:          db,
		History:     hist,
		Stats:       stats,
		Logger:      log,
		Build:       build,
		startedAt:   time.Now(),
		messagesHub: newSSEHub(),
		signalHub:   newSSEHub(),
	}
	s.metricsHandler = promhttp.HandlerFor(newMetricsRegistry(s), promhttp.HandlerOpts{})
	return s
}

// ObserveMessage records one routed message for the /api/stat.json
// counters and fans it out to the messages/signal SSE channels. Callers
// (the pipeline wiring in cmd/aiscatcherd) call this once per decoded
// Message.
func (s *Server) ObserveMessage(messageJSON, signalJSON []byte) {
	s.messagesIn.Add(1)
	s.bytesIn.Add(uint64(len(messageJSON)))
	if messageJSON != nil {
		s.messagesHub.Broadcast(messageJSON)
	}
	if signalJSON != nil {
		s.signalHub.Broadcast(signalJSON)
	}
}

// Handler returns the full route table (spec §6 "HTTP server surface").
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stat.json", s.maybeGzip(s.handleStat))
	mux.HandleFunc("/api/ships.json", s.maybeGzip(s.handleShips))
	mux.HandleFunc("/api/ships_array.json", s.maybeGzip(s.handleShipsArray))
	mux.HandleFunc("/api/ships_full.json", s.maybeGzip(s.handleShipsFull))
	mux.HandleFunc("/api/path.json", s.maybeGzip(s.handlePath))
	mux.HandleFunc("/api/message", s.maybeGzip(s.handleMessage))
	mux.HandleFunc("/api/sse", s.handleSSEMessages)
	mux.HandleFunc("/api/signal", s.handleSSESignal)
	mux.HandleFunc("/api/log", s.handleSSELog)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/tiles/", s.handleTile)
	return mux
}

// statResponse is the shape returned by /api/stat.json: counters, build
// info, and memory usage (spec §6).
type statResponse struct {
	Version      int    `json:"version"`
	Driver       int    `json:"driver"`
	Hardware     string `json:"hardware"`
	UptimeSec    int64  `json:"uptime_seconds"`
	MessagesIn   uint64 `json:"messages_in"`
	BytesIn      uint64 `json:"bytes_in"`
	VesselCount  int    `json:"vessel_count"`
	HeapAllocMiB uint64 `json:"heap_alloc_mib"`
	SysMiB       uint64 `json:"sys_mib"`
	NumGoroutine int    `json:"num_goroutine"`

	LevelMin   float64 `json:"level_min"`
	LevelMax   float64 `json:"level_max"`
	LevelMean  float64 `json:"level_mean"`
	PPMMean    float64 `json:"ppm_mean"`
	LongestKm  float64 `json:"longest_distance_km"`
	PerType    [28]uint64 `json:"per_type"`
	PerChannel [4]uint64  `json:"per_channel"`
}

func (s *Server) handleStat(w http.ResponseWriter, r *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	resp := statResponse{
		Version:      s.Build.Version,
		Driver:       s.Build.Driver,
		Hardware:     s.Build.Hardware,
		UptimeSec:    int64(time.Since(s.startedAt).Seconds()),
		MessagesIn:   s.messagesIn.Load(),
		BytesIn:      s.bytesIn.Load(),
		VesselCount:  s.DB.Len(),
		HeapAllocMiB: ms.HeapAlloc / (1024 * 1024),
		SysMiB:       ms.Sys / (1024 * 1024),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if s.Stats != nil {
		snap := s.Stats.Snapshot()
		resp.LevelMin = snap.LevelMin
		resp.LevelMax = snap.LevelMax
		resp.LevelMean = s.Stats.LevelMean()
		resp.PPMMean = s.Stats.PPMMean()
		resp.LongestKm = snap.LongestDistanceKm
		resp.PerType = snap.PerType
		resp.PerChannel = snap.PerChannel
	}
	writeJSON(w, resp)
}
