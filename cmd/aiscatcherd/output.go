package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aiscatcherd/aiscatcherd/internal/config"
	"github.com/aiscatcherd/aiscatcherd/internal/logger"
	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/output"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
	"github.com/aiscatcherd/aiscatcherd/pkg/transport"
)

// outputSender is the subset of every pkg/output streamer's surface this
// wiring needs: a uniform Send(msg, tag, isOwn). The HTTP POSTer doesn't
// fit this shape (it queues via Accept and drains on its own timer) and is
// handled separately below.
type outputSender interface {
	Send(msg *ais.Message, tag stream.Tag, isOwn bool)
}

// stationUUID identifies this receiver in peer JSON output (spec §6's
// "uuid" field), generated once per process so every output streamer and
// the SSE feed agree on one identity.
var stationUUID = uuid.New().String()

// buildOutput constructs the streamer cfg names and wraps it as a
// stream.StreamIn[*ais.Message] so it can Connect() onto the router like
// any other sink (spec §4.6's streamers are, structurally, just another
// group-filtered receiver). ctx/wg own the lifetime of any streamer that
// runs its own background loop (currently only the HTTP POSTer's drain
// timer, spec §5).
func buildOutput(ctx context.Context, wg *sync.WaitGroup, cfg config.Output, station config.Station, zl zerolog.Logger, ownMMSI int32, requestShutdown func(error)) (stream.StreamIn[*ais.Message], error) {
	filter := cfg.Filter.Build()
	format := cfg.BuildFormat()
	peerCfg := output.PeerJSONConfig{Hardware: "aiscatcherd", UUID: stationUUID}

	if cfg.Kind == config.OutputHTTP {
		poster := output.NewHTTPPoster(output.HTTPPosterOptions{
			URL: cfg.URL, Interval: cfg.Interval, Container: cfg.BuildContainer(), Gzip: cfg.Gzip,
			StationID: station.ID, Lat: station.Lat, Lon: station.Lon, PeerJSON: peerCfg, Logger: zl,
		}, filter)

		wg.Add(1)
		go func() {
			defer wg.Done()
			poster.Run()
		}()
		go func() {
			<-ctx.Done()
			poster.Close()
		}()

		return &stream.FuncReceiver[*ais.Message]{
			Groups: ^uint64(0),
			Fn: func(msg *ais.Message, tag stream.Tag) {
				poster.Accept(msg, tag, int32(msg.MMSI()) == ownMMSI)
			},
		}, nil
	}

	var sender outputSender

	switch cfg.Kind {
	case config.OutputUDP:
		sender = output.NewUDP(output.UDPOptions{
			Addr: cfg.Addr, Broadcast: cfg.Broadcast, ResetInterval: cfg.ResetInterval,
			Format: format, PeerJSON: peerCfg, Logger: zl,
		}, filter)

	case config.OutputTCPListener:
		listener := output.NewTCPListener(output.TCPListenerOptions{
			Addr: cfg.Addr, Format: format, PeerJSON: peerCfg, Logger: zl,
		}, filter)
		if err := listener.Start(); err != nil {
			return nil, fmt.Errorf("output %s: %w", cfg.Name, err)
		}
		sender = listener

	case config.OutputTCPClient:
		layer, err := buildInputStack(cfg.Addr, transport.TCPOptions{Persistent: true}, transport.TLSOptions{}, transport.Hooks{})
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", cfg.Name, err)
		}
		sender = output.NewTCPClient(layer, output.TCPClientOptions{
			Persistent: true, Format: format, PeerJSON: peerCfg, Logger: zl,
		}, filter, func(reason error) { requestShutdown(reason) })

	case config.OutputMQTT:
		_, mqttLayer, err := output.BuildMQTTStack(cfg.URL,
			transport.MQTTOptions{ClientID: cfg.ClientID, Username: cfg.Username, Password: cfg.Password, CleanSession: true, QoS: cfg.QoS},
			transport.TLSOptions{}, transport.TCPOptions{})
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", cfg.Name, err)
		}
		sender = output.NewMQTTStreamer(mqttLayer, output.MQTTStreamerOptions{
			URL: cfg.URL, ClientID: cfg.ClientID, Username: cfg.Username, Password: cfg.Password,
			TopicTemplate: cfg.TopicTemplate, QoS: cfg.QoS, Format: format, PeerJSON: peerCfg, Logger: zl,
		}, filter)

	default:
		return nil, fmt.Errorf("output %s: unsupported kind %q", cfg.Name, cfg.Kind)
	}

	return &stream.FuncReceiver[*ais.Message]{
		Groups: ^uint64(0),
		Fn: func(msg *ais.Message, tag stream.Tag) {
			sender.Send(msg, tag, int32(msg.MMSI()) == ownMMSI)
		},
	}, nil
}

// zerologFor returns the zerolog.Logger underlying log, for the pkg/output
// streamers and inputs that take one directly. Lines written through it go
// to the same writer as the rest of the daemon but do not enter the
// logger's /api/log ring or its SSE log fan-out.
func zerologFor(log *logger.Logger) zerolog.Logger {
	return log.Zerolog()
}
