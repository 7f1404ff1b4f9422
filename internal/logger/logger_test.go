package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/internal/logger"
)

func TestLogger_EntriesKeepsRingOrderOldestFirst(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf)

	l.Info("first")
	l.Warning("second")
	l.Error("third")

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "third", entries[2].Message)
	assert.Equal(t, logger.Warning, entries[1].Level)
}

func TestLogger_RingEvictsOldestPastCapacity(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf)

	for i := 0; i < 30; i++ {
		l.Info("line")
	}
	entries := l.Entries()
	assert.Len(t, entries, 25)
}

func TestLogger_SubscribeReceivesSubsequentEntries(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf)

	ch, cancel := l.Subscribe()
	defer cancel()

	l.Critical("meltdown")
	e := <-ch
	assert.Equal(t, logger.Critical, e.Level)
	assert.Equal(t, "meltdown", e.Message)
}

func TestLogger_CancelClosesChannel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf)

	ch, cancel := l.Subscribe()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestLogger_WritesToUnderlyingWriter(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf)

	l.Error("boom")
	assert.Contains(t, buf.String(), "boom")
}
