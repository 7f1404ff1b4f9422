package output

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
	"github.com/aiscatcherd/aiscatcherd/pkg/transport"
)

// TCPClientOptions configures a TCP-client output streamer (spec §4.6).
type TCPClientOptions struct {
	Persistent bool
	Format     MessageFormat
	PeerJSON   PeerJSONConfig
	Logger     zerolog.Logger
}

// ShutdownRequester is called by a non-persistent streamer on an
// unrecoverable send failure, per spec §4.6/§7 exit code 3 (network
// fatal).
type ShutdownRequester func(reason error)

// TCPClient streams formatted messages over a pkg/transport Layer (TCP,
// or TCP+TLS). On send failure: non-persistent requests shutdown;
// persistent buffers the most recent block and retries the connection.
type TCPClient struct {
	layer  transport.Layer
	opts   TCPClientOptions
	filter *Filter
	onFail ShutdownRequester

	mu      sync.Mutex
	pending []byte
	now     func() time.Time
}

// NewTCPClient wraps layer (already configured with reconnect hooks) as
// an output streamer.
func NewTCPClient(layer transport.Layer, opts TCPClientOptions, filter *Filter, onFail ShutdownRequester) *TCPClient {
	if filter == nil {
		filter = NewFilter()
	}
	return &TCPClient{layer: layer, opts: opts, filter: filter, onFail: onFail, now: time.Now}
}

// Send formats msg and writes it to the layer, reconnecting and retrying
// once if the layer reports disconnected, per spec §4.6.
func (c *TCPClient) Send(msg *ais.Message, tag stream.Tag, isOwn bool) {
	if !c.filter.Include(msg, isOwn, c.now()) {
		return
	}
	buf := FormatMessage(msg, c.opts.Format, c.opts.PeerJSON, tag, true, "AI", "VDM")
	if len(buf) == 0 {
		return
	}
	c.write(buf)
}

func (c *TCPClient) write(buf []byte) {
	if !c.layer.IsConnected() {
		if err := c.layer.Connect(); err != nil {
			c.onSendFailure(buf, err)
			return
		}
	}
	if _, err := c.layer.Send(buf); err != nil {
		c.onSendFailure(buf, err)
		return
	}
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

func (c *TCPClient) onSendFailure(buf []byte, err error) {
	if !c.opts.Persistent {
		c.opts.Logger.Error().Err(err).Msg("tcp-client: send failed, non-persistent, requesting shutdown")
		if c.onFail != nil {
			c.onFail(err)
		}
		return
	}
	c.opts.Logger.Warn().Err(err).Msg("tcp-client: send failed, buffering and retrying")
	c.mu.Lock()
	c.pending = buf
	c.mu.Unlock()
}

// FlushPending retries the last buffered block, intended to be called
// from the 10s reconnect timer (spec §4.5/§5).
func (c *TCPClient) FlushPending() {
	c.mu.Lock()
	buf := c.pending
	c.mu.Unlock()
	if buf == nil {
		return
	}
	c.write(buf)
}
