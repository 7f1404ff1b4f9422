package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/internal/config"
	"github.com/aiscatcherd/aiscatcherd/internal/logger"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

func TestPipeline_SaveThenLoadSnapshotRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.bin")
	zl := zerolog.New(io.Discard)

	p1 := newPipeline(config.Config{Persist: config.Persist{Path: path}}, logger.New(io.Discard))
	require.NoError(t, p1.wireSinks(context.Background(), func(error) {}))
	p1.router.Send(testPositionMessage(998877665), stream.Tag{Group: 1})
	require.Equal(t, 1, p1.db.Len())

	p1.saveSnapshot(zl)
	_, err := os.Stat(path)
	require.NoError(t, err)

	p2 := newPipeline(config.Config{Persist: config.Persist{Path: path}}, logger.New(io.Discard))
	p2.loadSnapshot(zl)
	assert.Equal(t, 1, p2.db.Len())
}

func TestPipeline_LoadSnapshotMissingFileLeavesEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.bin")
	p := newPipeline(config.Config{Persist: config.Persist{Path: path}}, logger.New(io.Discard))
	p.loadSnapshot(zerolog.New(io.Discard))
	assert.Equal(t, 0, p.db.Len())
}

func TestPipeline_LoadSnapshotTruncatedFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02, 0x03}, 0o644))

	p := newPipeline(config.Config{Persist: config.Persist{Path: path}}, logger.New(io.Discard))
	p.loadSnapshot(zerolog.New(io.Discard))
	assert.Equal(t, 0, p.db.Len())
}

func TestPipeline_SaveSnapshotEmptyPathIsNoop(t *testing.T) {
	p := newPipeline(config.Config{}, logger.New(io.Discard))
	p.saveSnapshot(zerolog.New(io.Discard))
}

func TestPipeline_RunPersistLoopSavesOnCancelThenStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.bin")
	p := newPipeline(config.Config{}, logger.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.runPersistLoop(ctx, config.Persist{Path: path, Interval: time.Hour}, zerolog.New(io.Discard))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runPersistLoop did not return after context cancellation")
	}

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
