// Package logger wraps zerolog into the five levels spec'd for this
// daemon's error handling design: Debug, Info, Warning, Error, Critical.
// Every log line also lands in a 25-entry in-memory ring (served at
// /api/log) and fans out to any subscribed SSE log-channel listener.
package logger

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is one of the five severities named in spec §7.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
	Critical
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// zerologLevel maps our five levels onto zerolog's. Critical maps to
// zerolog's Error level rather than Fatal/Panic: those call os.Exit/panic
// on every log line, which would make Critical() an unconditional
// process killer instead of a severity a caller can choose to act on.
func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Info:
		return zerolog.InfoLevel
	case Warning:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Entry is one ring/SSE record.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

const ringCapacity = 25

// Logger is the process-wide error/event sink: a zerolog.Logger writer
// plus the ring and SSE fan-out spec §7 requires.
type Logger struct {
	zl zerolog.Logger

	mu    sync.Mutex
	ring  [ringCapacity]Entry
	head  int
	count int

	subMu   sync.Mutex
	subs    map[int]chan Entry
	nextSub int
}

// New builds a Logger writing to w (normally os.Stderr per spec §7).
func New(w io.Writer) *Logger {
	return &Logger{
		zl:   zerolog.New(w).With().Timestamp().Logger(),
		subs: make(map[int]chan Entry),
	}
}

func (l *Logger) log(lvl Level, msg string) {
	l.zl.WithLevel(lvl.zerologLevel()).Str("severity", lvl.String()).Msg(msg)

	e := Entry{Time: time.Now(), Level: lvl, Message: msg}
	l.mu.Lock()
	idx := (l.head + l.count) % ringCapacity
	l.ring[idx] = e
	if l.count < ringCapacity {
		l.count++
	} else {
		l.head = (l.head + 1) % ringCapacity
	}
	l.mu.Unlock()

	l.broadcast(e)
}

func (l *Logger) Debug(msg string)    { l.log(Debug, msg) }
func (l *Logger) Info(msg string)     { l.log(Info, msg) }
func (l *Logger) Warning(msg string)  { l.log(Warning, msg) }
func (l *Logger) Error(msg string)    { l.log(Error, msg) }
func (l *Logger) Critical(msg string) { l.log(Critical, msg) }

func (l *Logger) Debugf(format string, args ...any)    { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)     { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warningf(format string, args ...any)  { l.Warning(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any)    { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Criticalf(format string, args ...any) { l.Critical(fmt.Sprintf(format, args...)) }

// Zerolog returns the underlying zerolog.Logger, for components (like
// pkg/output's streamers) that take one directly rather than depending
// on this package.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// Entries returns a copy of the ring, oldest first (spec §7 "/api/log").
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.ring[(l.head+i)%ringCapacity]
	}
	return out
}

// Subscribe registers an SSE log-channel listener. The caller must call
// the returned cancel func when its connection closes.
func (l *Logger) Subscribe() (<-chan Entry, func()) {
	ch := make(chan Entry, 16)
	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.subMu.Unlock()

	cancel := func() {
		l.subMu.Lock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(ch)
		}
		l.subMu.Unlock()
	}
	return ch, cancel
}

func (l *Logger) broadcast(e Entry) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default: // slow subscriber: drop the line rather than block the pipeline
		}
	}
}
