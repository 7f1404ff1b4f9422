package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aiscatcherd/aiscatcherd/pkg/transport"
)

// buildInputStack constructs the Layer chain for an ingestion URL per
// spec §4.5's "scheme selects the stack" rule: tcp:// is a bare TCP
// socket, tls:// adds TLS, ws:// adds WebSocket framing on top of TCP,
// wss:// stacks TLS under WebSocket. Grounded on
// output.BuildMQTTStack, the pack's own URL-to-Layer-chain builder,
// generalized here to the non-MQTT input schemes spec §4.5 also names.
func buildInputStack(rawURL string, tcpOpts transport.TCPOptions, tlsOpts transport.TLSOptions, hooks transport.Hooks) (transport.Layer, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "tcp://" + rawURL // bare host:port selects plain TCP
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("input: parse url %q: %w", rawURL, err)
	}

	tcpOpts.Addr = u.Host
	tcpOpts.Hooks = hooks
	var lower transport.Layer = transport.NewTCP(tcpOpts)

	switch u.Scheme {
	case "tcp", "":
		return lower, nil
	case "tls":
		tlsOpts.Host = u.Hostname()
		tlsOpts.Hooks = hooks
		return transport.NewTLS(lower, tlsOpts), nil
	case "ws":
		return transport.NewWebSocket(lower, transport.WebSocketOptions{URL: rawURL, Hooks: hooks}), nil
	case "wss":
		tlsOpts.Host = u.Hostname()
		tlsOpts.Hooks = hooks
		tl := transport.NewTLS(lower, tlsOpts)
		return transport.NewWebSocket(tl, transport.WebSocketOptions{URL: rawURL, Hooks: hooks}), nil
	default:
		return nil, fmt.Errorf("input: unsupported scheme %q", u.Scheme)
	}
}

const inputReadTimeout = 2 * time.Second
