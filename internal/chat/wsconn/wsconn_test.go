package wsconn

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve - mounts new listener into test HTTP server
func serve(test *testing.T, options ...Option) (*Listener, string) {
	test.Helper()
	ts := httptest.NewUnstartedServer(nil)
	l, err := NewListener(ts.Listener.Addr(), options...)
	require.NoError(test, err)
	ts.Config.Handler = l
	ts.Start()
	test.Cleanup(func() {
		l.Close()
		ts.Close()
	})
	return l, "ws" + strings.TrimPrefix(ts.URL, "http")
}

// accept - dials the listener and returns both sides of the connection
func accept(test *testing.T, l net.Listener, url string) (*websocket.Conn, net.Conn) {
	test.Helper()
	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()

	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(test, err)
	test.Cleanup(func() { client.Close() })

	select {
	case c, ok := <-accepted:
		require.True(test, ok, "accept failed")
		test.Cleanup(func() { c.Close() })
		return client, c
	case <-time.After(time.Second):
		test.Fatal("accept timed out")
		return nil, nil
	}
}

func TestNewListener(test *testing.T) {
	_, err := NewListener(nil, WithLogger(nil))
	assert.Error(test, err)
	_, err = NewListener(nil, WithCheckOrigin(nil))
	assert.Error(test, err)

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8889}
	l, err := NewListener(addr, nil)
	require.NoError(test, err)
	assert.Equal(test, addr, l.Addr())
	assert.NoError(test, l.Close())
	assert.ErrorIs(test, l.Close(), net.ErrClosed)
}

func TestConn_readWrite(test *testing.T) {
	l, url := serve(test)
	client, conn := accept(test, l, url)

	require.NoError(test, client.WriteMessage(websocket.TextMessage, []byte("first frame")))
	require.NoError(test, client.WriteMessage(websocket.BinaryMessage, []byte("second")))

	require.NoError(test, conn.SetReadDeadline(time.Now().Add(time.Second)))
	p := make([]byte, 5)
	n, err := conn.Read(p)
	require.NoError(test, err)
	assert.Equal(test, "first", string(p[:n]))
	p = make([]byte, 64)
	n, err = conn.Read(p)
	require.NoError(test, err)
	assert.Equal(test, " frame", string(p[:n]), "read must not cross frame boundary")
	n, err = conn.Read(p)
	require.NoError(test, err)
	assert.Equal(test, "second", string(p[:n]))

	n, err = conn.Write([]byte("hello\n"))
	require.NoError(test, err)
	assert.Equal(test, 6, n)
	require.NoError(test, client.SetReadDeadline(time.Now().Add(time.Second)))
	kind, data, err := client.ReadMessage()
	require.NoError(test, err)
	assert.Equal(test, websocket.TextMessage, kind)
	assert.Equal(test, "hello\n", string(data))

	assert.NotNil(test, conn.RemoteAddr())
	assert.NotNil(test, conn.LocalAddr())
}

func TestConn_peerClose(test *testing.T) {
	l, url := serve(test)
	client, conn := accept(test, l, url)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(test, client.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))

	require.NoError(test, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err := conn.Read(make([]byte, 16))
	assert.ErrorIs(test, err, io.EOF)
}

func TestConn_Close(test *testing.T) {
	l, url := serve(test)
	client, conn := accept(test, l, url)

	assert.NoError(test, conn.Close())
	assert.NoError(test, conn.Close(), "close is idempotent")

	require.NoError(test, client.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := client.ReadMessage()
	assert.True(test, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)

	_, err = conn.Write([]byte("late"))
	assert.Error(test, err)
}

func TestListener_Close(test *testing.T) {
	l, url := serve(test)
	require.NoError(test, l.Close())

	_, err := l.Accept()
	assert.ErrorIs(test, err, ErrListenerClosed)
	assert.ErrorIs(test, err, net.ErrClosed)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.ErrorIs(test, err, websocket.ErrBadHandshake)
	if assert.NotNil(test, resp) {
		assert.Equal(test, http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestListener_origin(test *testing.T) {
	l, url := serve(test)
	header := http.Header{"Origin": []string{"http://elsewhere.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	assert.ErrorIs(test, err, websocket.ErrBadHandshake)
	if assert.NotNil(test, resp) {
		assert.Equal(test, http.StatusForbidden, resp.StatusCode)
	}

	l, url = serve(test, WithCheckOrigin(func(*http.Request) bool { return true }))
	accept(test, l, url+"/any")
}

func TestListen(test *testing.T) {
	l, err := Listen("127.0.0.1:0", "/ws")
	require.NoError(test, err)
	defer l.Close()

	url := "ws://" + l.Addr().String() + "/ws"
	client, conn := accept(test, l, url)
	_, err = conn.Write([]byte("over gateway"))
	require.NoError(test, err)
	require.NoError(test, client.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(test, err)
	assert.Equal(test, "over gateway", string(data))

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+l.Addr().String()+"/other", nil)
	assert.Error(test, err)
	if resp != nil {
		assert.Equal(test, http.StatusNotFound, resp.StatusCode)
	}

	require.NoError(test, l.Close())
	_, err = l.Accept()
	assert.ErrorIs(test, err, net.ErrClosed)
}
