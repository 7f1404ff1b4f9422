package transport

import (
	"crypto/tls"
	"net"
	"sync"
	"time"
)

// TLSOptions configures a TLS layer wrapping a lower Layer (normally TCP).
type TLSOptions struct {
	Host               string // SNI / ServerName
	InsecureSkipVerify bool
	HandshakeTimeout   time.Duration // default 5s, polled in 1s steps per spec §4.5
	Hooks              Hooks
}

// handshakeState mirrors the teacher's tri-state connect/retry loops: the
// TLS layer sits in stateHandshaking across several non-blocking Connect
// polls before settling into stateConnected; a failed handshake
// disconnects the lower layer and Connect returns the error.
type handshakeState int

const (
	stateIdle handshakeState = iota
	stateHandshaking
	stateConnected
)

// TLS wraps a lower Layer (TCP) and performs a non-blocking handshake via
// retries (spec §4.5): connect() on the lower layer, then poll Handshake()
// until it completes, want-read/want-write (remain HANDSHAKING), or errors
// (disconnect).
type TLS struct {
	lower Layer
	opts  TLSOptions

	mu    sync.Mutex
	state handshakeState
	conn  *tls.Conn
}

// NewTLS wraps lower with a TLS client layer.
func NewTLS(lower Layer, opts TLSOptions) *TLS {
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = 5 * time.Second
	}
	return &TLS{lower: lower, opts: opts}
}

// layerConn adapts the wrapped Layer to a net.Conn so crypto/tls.Client can
// drive the handshake and record layer directly, without this package
// re-implementing the TLS state machine by hand.
type layerConn struct {
	Layer
}

func (l layerConn) LocalAddr() net.Addr                { return dummyAddr{} }
func (l layerConn) RemoteAddr() net.Addr               { return dummyAddr{} }
func (l layerConn) SetDeadline(time.Time) error        { return nil }
func (l layerConn) SetReadDeadline(time.Time) error     { return nil }
func (l layerConn) SetWriteDeadline(time.Time) error    { return nil }
func (l layerConn) Close() error                        { l.Disconnect(); return nil }
func (l layerConn) Read(p []byte) (int, error) {
	n, err := l.Layer.Read(p, time.Second, false)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, ErrWouldBlock
	}
	return n, nil
}
func (l layerConn) Write(p []byte) (int, error) { return l.Layer.Send(p) }

type dummyAddr struct{}

func (dummyAddr) Network() string { return "transport" }
func (dummyAddr) String() string  { return "transport" }

func (t *TLS) Connect() error {
	if err := t.lower.Connect(); err != nil {
		return err
	}

	t.mu.Lock()
	t.state = stateHandshaking
	t.mu.Unlock()

	cfg := &tls.Config{
		ServerName:         t.opts.Host,
		InsecureSkipVerify: t.opts.InsecureSkipVerify,
	}
	conn := tls.Client(layerConn{t.lower}, cfg)

	deadline := time.Now().Add(t.opts.HandshakeTimeout)
	for {
		err := conn.Handshake()
		if err == nil {
			break
		}
		if err == ErrWouldBlock || isTimeout(err) {
			if time.Now().After(deadline) {
				t.lower.Disconnect()
				return ErrProtocolViolation
			}
			time.Sleep(time.Second)
			continue
		}
		t.lower.Disconnect()
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.state = stateConnected
	t.mu.Unlock()

	if t.opts.Hooks.OnConnect != nil {
		t.opts.Hooks.OnConnect()
	}
	return nil
}

func (t *TLS) Disconnect() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	wasConnected := t.state == stateConnected
	t.state = stateIdle
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	t.lower.Disconnect()
	if wasConnected && t.opts.Hooks.OnDisconnect != nil {
		t.opts.Hooks.OnDisconnect()
	}
}

func (t *TLS) IsConnected() bool {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()
	return state == stateConnected && t.lower.IsConnected()
}

func (t *TLS) Send(buf []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, ErrClosed
	}
	n, err := conn.Write(buf)
	if err != nil {
		t.Disconnect()
		return n, err
	}
	return n, nil
}

func (t *TLS) Read(buf []byte, timeout time.Duration, waitAll bool) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, ErrClosed
	}

	deadline := time.Now().Add(timeout)
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			if err == ErrWouldBlock {
				if time.Now().After(deadline) {
					break
				}
				continue
			}
			t.Disconnect()
			return total, err
		}
		if !waitAll || time.Now().After(deadline) {
			break
		}
	}
	return total, nil
}
