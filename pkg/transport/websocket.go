package transport

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxFramePayload enforces the spec §4.5 16 KiB frame payload ceiling.
const maxFramePayload = 16 * 1024

// WebSocketOptions configures a WebSocket layer wrapping a lower Layer
// (TCP or TLS).
type WebSocketOptions struct {
	URL   string // ws:// or wss://, path included
	Hooks Hooks
}

// WebSocket wraps a lower Layer and speaks RFC 6455 framing over it. The
// handshake (Sec-WebSocket-Key/Accept, Upgrade/Connection headers) and wire
// framing (FIN|opcode, MASK|len7, masking key, XOR) are delegated to
// gorilla/websocket, dialed through a net.Conn adapter over the lower Layer
// so the same TCP/TLS reconnect and keep-alive machinery underlies it.
type WebSocket struct {
	lower Layer
	opts  WebSocketOptions

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	pending   []byte
}

// NewWebSocket wraps lower with a WebSocket client layer.
func NewWebSocket(lower Layer, opts WebSocketOptions) *WebSocket {
	return &WebSocket{lower: lower, opts: opts}
}

func (w *WebSocket) Connect() error {
	if err := w.lower.Connect(); err != nil {
		return err
	}

	u, err := url.Parse(w.opts.URL)
	if err != nil {
		w.lower.Disconnect()
		return err
	}

	dialer := &websocket.Dialer{
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return layerConn{w.lower}, nil
		},
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		w.lower.Disconnect()
		return ErrProtocolViolation
	}
	conn.SetReadLimit(maxFramePayload)

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if w.opts.Hooks.OnConnect != nil {
		w.opts.Hooks.OnConnect()
	}
	return nil
}

func (w *WebSocket) Disconnect() {
	w.mu.Lock()
	conn := w.conn
	w.conn = nil
	wasConnected := w.connected
	w.connected = false
	w.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	w.lower.Disconnect()
	if wasConnected && w.opts.Hooks.OnDisconnect != nil {
		w.opts.Hooks.OnDisconnect()
	}
}

func (w *WebSocket) IsConnected() bool {
	w.mu.Lock()
	connected := w.connected
	w.mu.Unlock()
	return connected && w.lower.IsConnected()
}

// Send emits a single BINARY frame per spec §4.5 (TEXT is not used by any
// output streamer; all payloads here are NMEA/JSON bytes sent as binary).
func (w *WebSocket) Send(buf []byte) (int, error) {
	if len(buf) > maxFramePayload {
		return 0, ErrOversize
	}
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return 0, ErrClosed
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
		w.Disconnect()
		return 0, err
	}
	return len(buf), nil
}

// Read drains any bytes already buffered from a prior frame, then waits for
// the next TEXT/BINARY frame. CLOSE triggers disconnect per spec; PING is
// answered with PONG transparently by gorilla/websocket's control-frame
// handling; PONG is ignored.
func (w *WebSocket) Read(buf []byte, timeout time.Duration, waitAll bool) (int, error) {
	w.mu.Lock()
	conn := w.conn
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()
	if conn == nil {
		return 0, ErrClosed
	}

	if len(pending) > 0 {
		n := copy(buf, pending)
		if n < len(pending) {
			w.mu.Lock()
			w.pending = pending[n:]
			w.mu.Unlock()
		}
		return n, nil
	}

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		if isTimeout(err) {
			return 0, nil
		}
		w.Disconnect()
		return 0, ErrClosed
	}
	switch msgType {
	case websocket.CloseMessage:
		w.Disconnect()
		return 0, ErrClosed
	case websocket.TextMessage, websocket.BinaryMessage:
		n := copy(buf, data)
		if n < len(data) {
			w.mu.Lock()
			w.pending = data[n:]
			w.mu.Unlock()
		}
		return n, nil
	default:
		return 0, nil
	}
}
