package main

import (
	"context"
	"sync"

	"github.com/aiscatcherd/aiscatcherd/internal/config"
	"github.com/aiscatcherd/aiscatcherd/internal/logger"
	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/httpserver"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
	"github.com/aiscatcherd/aiscatcherd/pkg/vessel"
)

// pipeline wires every L1-L8 module together for one process lifetime.
type pipeline struct {
	cfg config.Config
	log *logger.Logger

	db    *vessel.DB
	hist  *vessel.History
	stats *vessel.Statistics
	http  *httpserver.Server
	router *stream.Connection[*ais.Message]

	wg sync.WaitGroup
}

func newPipeline(cfg config.Config, log *logger.Logger) *pipeline {
	capacity := cfg.Vessel.Capacity
	if capacity == 0 {
		capacity = vessel.DefaultCapacity
	}
	db := vessel.NewDB(capacity, cfg.Vessel.CutoffKm)
	if cfg.Station.Lat != 0 || cfg.Station.Lon != 0 {
		db.SetStationPosition(cfg.Station.Lat, cfg.Station.Lon)
	}
	hist := vessel.NewHistory()
	stats := vessel.NewStatistics()

	srv := httpserver.New(db, hist, stats, log, httpserver.BuildInfo{Version: 1, Driver: 1, Hardware: "aiscatcherd"})
	srv.TilesDir = cfg.HTTPServer.TilesDir
	srv.Gzip = cfg.HTTPServer.Gzip

	p := &pipeline{cfg: cfg, log: log, db: db, hist: hist, stats: stats, http: srv}
	p.router = stream.NewConnection[*ais.Message](^uint64(0))
	return p
}

// wireSinks connects the vessel DB, the history/stats observer, and every
// configured output streamer onto the router (spec §4.7/§4.6: every sink
// is, structurally, a group-filtered stream.StreamIn[*ais.Message]). ctx
// bounds the lifetime of any streamer with its own background loop (the
// HTTP POSTer's drain timer); it is cancelled from main's shutdown path.
func (p *pipeline) wireSinks(ctx context.Context, requestShutdown func(error)) error {
	p.router.Connect(p.db)

	p.router.Connect(&stream.FuncReceiver[*ais.Message]{
		Groups: ^uint64(0),
		Fn: func(msg *ais.Message, tag stream.Tag) {
			p.hist.Record(uint32(p.db.Len()))

			distanceKm, bearing, hasPos := 0.0, 0.0, false
			if pr, ok := vessel.DecodePositionReport(msg); ok && pr.HasPos {
				if km, deg, known := p.db.StationDistanceBearing(pr.Lat, pr.Lon); known {
					distanceKm, bearing, hasPos = km, deg, true
				}
			}
			p.stats.Observe(msg, tag, distanceKm, bearing, hasPos)

			msgJSON := messageJSON(msg, tag, p.http.Build)
			p.http.ObserveMessage(msgJSON, signalJSON(tag))
		},
	})

	for _, outCfg := range p.cfg.Outputs {
		sink, err := buildOutput(ctx, &p.wg, outCfg, p.cfg.Station, zerologFor(p.log), p.cfg.Station.OwnMMSI, requestShutdown)
		if err != nil {
			return err
		}
		p.router.Connect(sink)
	}
	return nil
}

// runInputs launches one goroutine per configured input; they run until
// ctx is cancelled.
func (p *pipeline) runInputs(ctx context.Context, requestShutdown func(error)) {
	for _, in := range p.cfg.Inputs {
		in := in
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			runInput(ctx, in, p.router, zerologFor(p.log), requestShutdown)
		}()
	}
}

func (p *pipeline) wait() {
	p.wg.Wait()
}
