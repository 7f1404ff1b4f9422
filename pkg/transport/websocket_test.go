package transport_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiscatcherd/aiscatcherd/pkg/transport"
)

// TestWebSocket_ServerCloseDisconnects covers spec scenario 6: the server
// closes with opcode 0x8 and IsConnected() must return false on the next
// call.
func TestWebSocket_ServerCloseDisconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")

	tcp := transport.NewTCP(transport.TCPOptions{Addr: addr})
	ws := transport.NewWebSocket(tcp, transport.WebSocketOptions{URL: "ws://" + addr + "/"})
	require.NoError(t, ws.Connect())

	buf := make([]byte, 64)
	_, _ = ws.Read(buf, time.Second, false)

	assert.False(t, ws.IsConnected())
}

func TestWebSocket_EchoRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		_ = conn.WriteMessage(websocket.BinaryMessage, data)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	tcp := transport.NewTCP(transport.TCPOptions{Addr: addr})
	ws := transport.NewWebSocket(tcp, transport.WebSocketOptions{URL: "ws://" + addr + "/"})
	require.NoError(t, ws.Connect())
	defer ws.Disconnect()

	n, err := ws.Send([]byte("!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*26"))
	require.NoError(t, err)
	assert.NotZero(t, n)

	buf := make([]byte, 128)
	n, err = ws.Read(buf, 2*time.Second, false)
	require.NoError(t, err)
	assert.Equal(t, "!AIVDM,1,1,,A,13aEOK?P00PD2wVMdLDRhgvL289?,0*26", string(buf[:n]))
}
