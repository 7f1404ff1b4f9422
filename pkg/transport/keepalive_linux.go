//go:build linux

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// setKeepAliveTuning applies the KEEPIDLE=20s, INTVL=5s, CNT=2 tuning
// from spec §4.5, mirroring socketcan/socketcan.go's use of
// golang.org/x/sys/unix raw socket options since the stdlib only exposes
// a single combined keep-alive period.
func setKeepAliveTuning(tc *net.TCPConn) {
	_ = tc.SetKeepAlive(true)
	raw, err := tc.SyscallConn()
	if err != nil {
		return
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 20)
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 5)
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 2)
	})
}
