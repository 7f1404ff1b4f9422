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

func TestRunInput_BadSchemeRequestsShutdownAndReturns(t *testing.T) {
	router := stream.NewConnection[*ais.Message](^uint64(0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var shutdownErr error
	var called bool
	requestShutdown := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		called, shutdownErr = true, err
	}

	done := make(chan struct{})
	go func() {
		runInput(ctx, config.Input{Name: "bad", URL: "mqtt://example.com:1883"}, router, zerolog.New(io.Discard), requestShutdown)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runInput did not return for an unsupported scheme")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, called)
	assert.Error(t, shutdownErr)
}

func TestRunInput_NonPersistentConnectFailureRequestsShutdownOnce(t *testing.T) {
	router := stream.NewConnection[*ais.Message](^uint64(0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	requestShutdown := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
	}

	done := make(chan struct{})
	go func() {
		runInput(ctx, config.Input{
			Name: "refused", URL: "tcp://127.0.0.1:1", Persistent: false, ConnectTimeout: 500 * time.Millisecond,
		}, router, zerolog.New(io.Discard), requestShutdown)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("runInput did not return after a refused non-persistent connection")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestSleepCtx_ReturnsFalseWhenContextCancelledFirst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, sleepCtx(ctx, time.Second))
}

func TestSleepCtx_ReturnsTrueAfterDelayElapses(t *testing.T) {
	ctx := context.Background()
	require.True(t, sleepCtx(ctx, time.Millisecond))
}
