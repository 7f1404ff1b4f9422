//go:build !linux

package transport

import (
	"net"
	"time"
)

// setKeepAliveTuning falls back to the stdlib's single combined period on
// platforms without per-phase TCP_KEEPIDLE/INTVL/CNT socket options.
func setKeepAliveTuning(tc *net.TCPConn) {
	_ = tc.SetKeepAlive(true)
	_ = tc.SetKeepAlivePeriod(5 * time.Second) // closest single-value approximation
}
