package output

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiscatcherd/aiscatcherd/pkg/ais"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
	"github.com/aiscatcherd/aiscatcherd/pkg/transport"
)

// MQTTStreamerOptions configures an MQTT output streamer (spec §4.6). The
// URL scheme selects the underlying protocol stack: mqtt:// (TCP),
// mqtts:// (TCP+TLS), ws://... (TCP+WS), wss://... (TCP+TLS+WS).
type MQTTStreamerOptions struct {
	URL           string
	ClientID      string
	Username      string
	Password      string
	TopicTemplate string
	QoS           byte
	Format        MessageFormat
	PeerJSON      PeerJSONConfig
	Logger        zerolog.Logger
}

// BuildMQTTStack constructs the Layer chain for url per spec §4.5's
// "selected by URL scheme" rule, returning the chain's outermost Layer
// and, when present, the *transport.MQTT leaf (needed for SendTopic).
func BuildMQTTStack(rawURL string, opts transport.MQTTOptions, tlsOpts transport.TLSOptions, tcpOpts transport.TCPOptions) (transport.Layer, *transport.MQTT, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, err
	}

	tcpOpts.Addr = u.Host
	var lower transport.Layer = transport.NewTCP(tcpOpts)

	switch u.Scheme {
	case "mqtt":
		m := transport.NewMQTT(lower, opts)
		return m, m, nil
	case "mqtts":
		tlsOpts.Host = u.Hostname()
		tl := transport.NewTLS(lower, tlsOpts)
		m := transport.NewMQTT(tl, opts)
		return m, m, nil
	case "ws":
		ws := transport.NewWebSocket(lower, transport.WebSocketOptions{URL: rawURL})
		m := transport.NewMQTT(ws, opts)
		return m, m, nil
	case "wss":
		tlsOpts.Host = u.Hostname()
		tl := transport.NewTLS(lower, tlsOpts)
		ws := transport.NewWebSocket(tl, transport.WebSocketOptions{URL: rawURL})
		m := transport.NewMQTT(ws, opts)
		return m, m, nil
	default:
		return nil, nil, fmt.Errorf("output: unsupported mqtt scheme %q", u.Scheme)
	}
}

// MQTTStreamer publishes formatted messages to per-message topics derived
// from TopicTemplate (spec §4.6).
type MQTTStreamer struct {
	layer  *transport.MQTT
	opts   MQTTStreamerOptions
	filter *Filter

	mu  sync.Mutex
	now func() time.Time
}

// NewMQTTStreamer wraps a pre-built MQTT layer as an output streamer.
func NewMQTTStreamer(layer *transport.MQTT, opts MQTTStreamerOptions, filter *Filter) *MQTTStreamer {
	if filter == nil {
		filter = NewFilter()
	}
	return &MQTTStreamer{layer: layer, opts: opts, filter: filter, now: time.Now}
}

// Send formats msg, resolves its topic from TopicTemplate, and publishes
// it, reconnecting once if the layer is currently disconnected.
func (s *MQTTStreamer) Send(msg *ais.Message, tag stream.Tag, isOwn bool) {
	if !s.filter.Include(msg, isOwn, s.now()) {
		return
	}
	buf := FormatMessage(msg, s.opts.Format, s.opts.PeerJSON, tag, true, "AI", "VDM")
	if len(buf) == 0 {
		return
	}

	if !s.layer.IsConnected() {
		if err := s.layer.Connect(); err != nil {
			s.opts.Logger.Warn().Err(err).Msg("mqtt-streamer: connect failed")
			return
		}
	}

	topic := TopicTemplate(s.opts.TopicTemplate, msg)
	if _, err := s.layer.SendTopic(topic, buf); err != nil {
		s.opts.Logger.Warn().Err(err).Str("topic", topic).Msg("mqtt-streamer: publish failed")
	}
}
