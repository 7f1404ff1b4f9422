package output

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

// UDPOptions configures a fire-and-forget UDP broadcaster (spec §4.6).
type UDPOptions struct {
	Addr          string
	Broadcast     bool
	ResetInterval time.Duration // reset_minutes; 0 disables periodic recreation
	Format        MessageFormat
	PeerJSON      PeerJSONConfig
	Logger        zerolog.Logger
}

// UDP is a single non-blocking datagram socket, periodically recreated to
// dodge NAT timeouts (spec §4.6).
type UDP struct {
	opts   UDPOptions
	filter *Filter

	mu        sync.Mutex
	conn      net.Conn
	openedAt  time.Time
	now       func() time.Time
}

// NewUDP creates a UDP streamer with the given filter (never nil).
func NewUDP(opts UDPOptions, filter *Filter) *UDP {
	if filter == nil {
		filter = NewFilter()
	}
	return &UDP{opts: opts, filter: filter, now: time.Now}
}

func (u *UDP) ensureConn() (net.Conn, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn != nil && u.opts.ResetInterval > 0 && u.now().Sub(u.openedAt) > u.opts.ResetInterval {
		_ = u.conn.Close()
		u.conn = nil
	}
	if u.conn != nil {
		return u.conn, nil
	}

	conn, err := net.Dial("udp", u.opts.Addr)
	if err != nil {
		return nil, err
	}
	if u.opts.Broadcast {
		setBroadcast(conn)
	}
	u.conn = conn
	u.openedAt = u.now()
	return conn, nil
}

// Send formats msg and writes it once to the destination, per spec §4.6.
// Errors are logged, never fatal — UDP is fire-and-forget.
func (u *UDP) Send(msg *ais.Message, tag stream.Tag, isOwn bool) {
	if !u.filter.Include(msg, isOwn, u.now()) {
		return
	}
	buf := FormatMessage(msg, u.opts.Format, u.opts.PeerJSON, tag, true, "AI", "VDM")
	if len(buf) == 0 {
		return
	}

	conn, err := u.ensureConn()
	if err != nil {
		u.opts.Logger.Warn().Err(err).Str("addr", u.opts.Addr).Msg("udp: dial failed")
		return
	}
	if _, err := conn.Write(buf); err != nil {
		u.opts.Logger.Warn().Err(err).Str("addr", u.opts.Addr).Msg("udp: write failed")
	}
}

// Close releases the underlying socket.
func (u *UDP) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn != nil {
		_ = u.conn.Close()
		u.conn = nil
	}
}
