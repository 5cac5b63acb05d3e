package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/heyframe/internal/protocol"
)

const (
	testOrigin  = "http://localhost:8080"
	readTimeout = 2 * time.Second
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startTestServer runs a Server behind httptest and tears both down when
// the test ends.
func startTestServer(t *testing.T, cfg *Config) (*Server, *httptest.Server) {
	t.Helper()

	s := New(cfg, WithLogger(discardLogger()))
	s.Start()
	ts := httptest.NewServer(s.Routes())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		ts.Close()
	})
	return s, ts
}

func wsURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// testClient is a thin frame-level driver for one WebSocket connection.
type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialWithOrigin(serverURL, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	return dialer.Dial(wsURL(serverURL), headers)
}

func dial(t *testing.T, serverURL string) *testClient {
	t.Helper()
	conn, resp, err := dialWithOrigin(serverURL, testOrigin)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(event, id string, data any) {
	c.t.Helper()
	env := map[string]any{"event": event}
	if id != "" {
		env["id"] = id
	}
	if data != nil {
		env["data"] = data
	}
	require.NoError(c.t, c.conn.WriteJSON(env))
}

func (c *testClient) next() protocol.Envelope {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, raw, err := c.conn.ReadMessage()
	require.NoError(c.t, err)

	var env protocol.Envelope
	require.NoError(c.t, json.Unmarshal(raw, &env))
	return env
}

// waitFor skips frames until one with the given event arrives.
func (c *testClient) waitFor(event string) protocol.Envelope {
	c.t.Helper()
	for {
		env := c.next()
		if env.Event == event {
			return env
		}
	}
}

func (c *testClient) waitForAck(id string) protocol.Envelope {
	c.t.Helper()
	for {
		env := c.waitFor(protocol.EventAck)
		if env.ID == id {
			return env
		}
	}
}

func (c *testClient) waitForCount(n int) {
	c.t.Helper()
	for {
		env := c.waitFor("users_count")
		var got int
		require.NoError(c.t, json.Unmarshal(env.Data, &got))
		if got == n {
			return
		}
	}
}

// handshake consumes the frames every new connection receives.
func (c *testClient) handshake() {
	c.t.Helper()
	require.Equal(c.t, "chat_history", c.next().Event)
	require.Equal(c.t, "request_nickname", c.next().Event)
}

func (c *testClient) setNickname(id, nickname string) protocol.NicknameAck {
	c.t.Helper()
	c.send(protocol.EventSetNickname, id, nickname)
	var ack protocol.NicknameAck
	require.NoError(c.t, json.Unmarshal(c.waitForAck(id).Data, &ack))
	return ack
}

// expectClosed reads until the server closes the connection.
func (c *testClient) expectClosed() {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.t.Fatalf("connection was not closed by the server: %v", err)
		}
		return
	}
}
