package main

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/internal/config"
	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

func TestBuildOutput_UDPWrapsAsStreamIn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	sink, err := buildOutput(ctx, &wg, config.Output{Name: "udp1", Kind: config.OutputUDP, Addr: "127.0.0.1:9"},
		config.Station{}, zerolog.New(io.Discard), 0, func(error) {})
	require.NoError(t, err)
	require.NotNil(t, sink)
	assert.EqualValues(t, ^uint64(0), sink.GroupsIn())
}

func TestBuildOutput_UnsupportedKindErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	_, err := buildOutput(ctx, &wg, config.Output{Name: "bogus", Kind: config.OutputKind("smoke_signal")},
		config.Station{}, zerolog.New(io.Discard), 0, func(error) {})
	assert.Error(t, err)
}

func TestBuildOutput_HTTPStartsAndStopsDrainLoopOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	sink, err := buildOutput(ctx, &wg, config.Output{
		Name: "http1", Kind: config.OutputHTTP, URL: "http://127.0.0.1:0/ingest", Interval: time.Hour,
	}, config.Station{}, zerolog.New(io.Discard), 0, func(error) {})
	require.NoError(t, err)
	require.NotNil(t, sink)

	var m ais.Message
	m.SetUint(8, 30, 123456789)
	sink.Receive(&m, stream.Tag{})

	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("HTTP poster drain goroutine did not exit after context cancellation")
	}
}
