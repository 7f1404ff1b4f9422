//go:build !linux

package output

import "net"

// setBroadcast is a no-op on platforms without a raw SO_BROADCAST path
// wired here; the stdlib exposes no portable equivalent.
func setBroadcast(net.Conn) {}
