package output_test

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/pkg/output"
	"github.com/aiscatcherd/aiscatcherd/pkg/stream"
)

func TestTCPListener_BroadcastsToAllClients(t *testing.T) {
	l := output.NewTCPListener(output.TCPListenerOptions{Addr: "127.0.0.1:0", Format: output.FormatNMEA}, nil)
	require.NoError(t, l.Start())
	defer l.Close()

	addr := l.Addr()
	c1, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c2.Close()

	require.Eventually(t, func() bool { return l.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	l.Send(msgOfType(1, 0, 'A', 244670316), stream.Tag{}, false)

	for _, c := range []net.Conn{c1, c2} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		line, err := bufio.NewReader(c).ReadString('\n')
		require.NoError(t, err)
		assert.Contains(t, line, "!AIVDM,")
	}
}
