package output

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// TCPListenerOptions configures a TCP-listener broadcaster (spec §4.6).
type TCPListenerOptions struct {
	Addr          string
	ClientTimeout time.Duration // per-client write deadline; default 2s
	Format        MessageFormat
	PeerJSON      PeerJSONConfig
	Logger        zerolog.Logger
}

// TCPListener accepts multiple clients and broadcasts every accepted
// Message to all of them; clients are culled on write failure (spec
// §4.6).
type TCPListener struct {
	opts     TCPListenerOptions
	filter   *Filter
	listener net.Listener

	mu      sync.Mutex
	clients map[net.Conn]struct{}
	now     func() time.Time
}

// NewTCPListener creates a listener broadcaster with the given filter.
func NewTCPListener(opts TCPListenerOptions, filter *Filter) *TCPListener {
	if filter == nil {
		filter = NewFilter()
	}
	if opts.ClientTimeout == 0 {
		opts.ClientTimeout = 2 * time.Second
	}
	return &TCPListener{opts: opts, filter: filter, clients: make(map[net.Conn]struct{}), now: time.Now}
}

// Start opens the listening socket and begins accepting clients in a
// background goroutine. Call Close to stop.
func (l *TCPListener) Start() error {
	ln, err := net.Listen("tcp", l.opts.Addr)
	if err != nil {
		return err
	}
	l.listener = ln
	go l.acceptLoop()
	return nil
}

func (l *TCPListener) acceptLoop() {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			return
		}
		l.mu.Lock()
		l.clients[conn] = struct{}{}
		l.mu.Unlock()
		l.opts.Logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("tcp-listener: client connected")
	}
}

// Send formats msg and broadcasts it to every connected client, dropping
// (and closing) any client whose write fails.
func (l *TCPListener) Send(msg *ais.Message, tag stream.Tag, isOwn bool) {
	if !l.filter.Include(msg, isOwn, l.now()) {
		return
	}
	buf := FormatMessage(msg, l.opts.Format, l.opts.PeerJSON, tag, true, "AI", "VDM")
	if len(buf) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for conn := range l.clients {
		_ = conn.SetWriteDeadline(l.now().Add(l.opts.ClientTimeout))
		if _, err := conn.Write(buf); err != nil {
			_ = conn.Close()
			delete(l.clients, conn)
		}
	}
}

// Close stops accepting new clients and closes every connected client.
func (l *TCPListener) Close() {
	if l.listener != nil {
		_ = l.listener.Close()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for conn := range l.clients {
		_ = conn.Close()
		delete(l.clients, conn)
	}
}

// Addr returns the listener's bound address, useful when Addr was
// configured with a ":0" ephemeral port.
func (l *TCPListener) Addr() string {
	if l.listener == nil {
		return ""
	}
	return l.listener.Addr().String()
}

// ClientCount reports the number of currently connected clients.
func (l *TCPListener) ClientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
