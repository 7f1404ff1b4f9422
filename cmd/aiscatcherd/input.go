package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiscatcherd/aiscatcherd/internal/config"
	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/nmea"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
	"github.com/aiscatcherd/aiscatcherd/pkg/transport"
)

// runInput owns one ingestion source for the process lifetime (spec §5's
// "one worker thread per device"): connect, feed every received chunk to
// a dedicated Reassembler, forward decoded messages to router, and
// reconnect per the persistent/non-persistent policy from spec §7 until
// ctx is cancelled.
func runInput(ctx context.Context, cfg config.Input, router *stream.Connection[*ais.Message], zl zerolog.Logger, requestShutdown func(error)) {
	group := cfg.Groups
	if group == 0 {
		group = 1
	}

	reassembler := nmea.New()
	reassembler.Warnings = cfg.Warnings
	reassembler.CRCCheck = cfg.CRCCheck
	reassembler.OnWarning = func(msg string) {
		zl.Warn().Str("input", cfg.Name).Msg(msg)
	}
	reassembler.OnMessage = func(msg *ais.Message, tag stream.Tag) {
		tag.Group = group
		router.Send(msg, tag)
	}

	var layer transport.Layer
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = 5 * time.Second
	}
	reconnectInterval := cfg.ReconnectInterval
	if reconnectInterval == 0 {
		reconnectInterval = 10 * time.Second
	}

	for {
		if ctx.Err() != nil {
			return
		}

		var err error
		layer, err = buildInputStack(cfg.URL,
			transport.TCPOptions{ConnectTimeout: connectTimeout, Persistent: cfg.Persistent, ReconnectInterval: reconnectInterval, KeepAlive: cfg.KeepAlive},
			transport.TLSOptions{HandshakeTimeout: connectTimeout},
			transport.Hooks{
				OnDisconnect: func() { zl.Warn().Str("input", cfg.Name).Msg("disconnect, reconnecting") },
				OnConnect:    func() { zl.Debug().Str("input", cfg.Name).Msg("reconnected") },
			})
		if err != nil {
			requestShutdown(err) // ConfigInvalid-shaped (bad url), not a runtime retry case
			return
		}

		if connErr := layer.Connect(); connErr != nil {
			if !cfg.Persistent {
				requestShutdown(connErr)
				return
			}
			zl.Warn().Str("input", cfg.Name).Err(connErr).Msg("connect failed, retrying")
			if !sleepCtx(ctx, reconnectInterval) {
				return
			}
			continue
		}

		readLoop(ctx, layer, reassembler)
		layer.Disconnect()

		if !cfg.Persistent {
			requestShutdown(nil)
			return
		}
		if !sleepCtx(ctx, reconnectInterval) {
			return
		}
	}
}

// readLoop pumps bytes from layer into reassembler until ctx is
// cancelled or the layer reports a closed connection.
func readLoop(ctx context.Context, layer transport.Layer, reassembler *nmea.Reassembler) {
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := layer.Read(buf, inputReadTimeout, false)
		if n > 0 {
			reassembler.Feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
