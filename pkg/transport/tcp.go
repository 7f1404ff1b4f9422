package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// TCPOptions configures a TCP layer.
type TCPOptions struct {
	Addr              string
	ConnectTimeout    time.Duration // default 1s
	Persistent        bool
	ReconnectInterval time.Duration // default 10s
	ResetInterval     time.Duration // reset_minutes; 0 disables
	KeepAlive         bool
	Hooks             Hooks
}

// TCP is the bottom layer of the stack: a plain TCP socket with optional
// persistent-reconnect semantics (spec §4.5).
type TCP struct {
	opts TCPOptions

	mu        sync.Mutex
	conn      net.Conn
	connected atomic.Bool
	connectAt time.Time

	now func() time.Time
}

// NewTCP creates a TCP layer. ConnectTimeout/ReconnectInterval default to
// 1s/10s when zero.
func NewTCP(opts TCPOptions) *TCP {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = time.Second
	}
	if opts.ReconnectInterval == 0 {
		opts.ReconnectInterval = 10 * time.Second
	}
	return &TCP{opts: opts, now: time.Now}
}

func (t *TCP) Connect() error {
	conn, err := net.DialTimeout("tcp", t.opts.Addr, t.opts.ConnectTimeout)
	if err != nil {
		return err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		if t.opts.KeepAlive {
			setKeepAliveTuning(tc)
		}
	}

	t.mu.Lock()
	t.conn = conn
	t.connectAt = t.now()
	t.mu.Unlock()
	t.connected.Store(true)

	if t.opts.Hooks.OnConnect != nil {
		t.opts.Hooks.OnConnect()
	}
	return nil
}

func (t *TCP) Disconnect() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	wasConnected := t.connected.Swap(false)
	if conn != nil {
		_ = conn.Close()
	}
	if wasConnected && t.opts.Hooks.OnDisconnect != nil {
		t.opts.Hooks.OnDisconnect()
	}
}

func (t *TCP) IsConnected() bool {
	if !t.connected.Load() {
		return false
	}
	if t.opts.ResetInterval > 0 {
		t.mu.Lock()
		due := t.now().Sub(t.connectAt) > t.opts.ResetInterval
		t.mu.Unlock()
		if due {
			// socket recycling kicks in on next send/read attempt; the
			// streamer observes IsConnected()==false and reconnects.
			t.Disconnect()
			return false
		}
	}
	return true
}

func (t *TCP) Send(buf []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, ErrClosed
	}

	_ = conn.SetWriteDeadline(t.now().Add(200 * time.Millisecond))
	n, err := conn.Write(buf)
	if err != nil {
		if isTimeout(err) {
			return n, nil // EAGAIN/WOULDBLOCK-equivalent: no data, no disconnect
		}
		t.Disconnect()
		return n, err
	}
	return n, nil
}

func (t *TCP) Read(buf []byte, timeout time.Duration, waitAll bool) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, ErrClosed
	}

	deadline := t.now().Add(timeout)
	_ = conn.SetReadDeadline(deadline)

	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			if isTimeout(err) {
				break
			}
			t.Disconnect()
			return total, err
		}
		if !waitAll {
			break
		}
		if t.now().After(deadline) {
			break
		}
	}
	return total, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
