//go:build linux

package output

import (
	"net"

	"golang.org/x/sys/unix"
)

// setBroadcast enables SO_BROADCAST on the UDP socket underlying conn, so
// sends to a subnet broadcast address succeed (spec §4.6 "broadcast
// flag"). Grounded on keepalive_linux.go's SyscallConn+unix.SetsockoptInt
// pattern in pkg/transport.
func setBroadcast(conn net.Conn) {
	uc, ok := conn.(*net.UDPConn)
	if !ok {
		return
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
}
