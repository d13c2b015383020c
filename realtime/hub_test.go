package realtime_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmedelbailey/occla-backend/realtime"
)

func startHub(t *testing.T) (*realtime.Hub, string) {
	t.Helper()
	hub := realtime.NewHub(zap.NewNop().Sugar())
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) realtime.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg realtime.Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func TestEmitReachesEveryConnectedClient(t *testing.T) {
	hub, url := startHub(t)

	c1 := dial(t, url)
	c2 := dial(t, url)
	// give the run loop a beat to register both clients
	time.Sleep(100 * time.Millisecond)

	hub.Emit(realtime.Message{Channel: "posts", Action: "create", Post: map[string]interface{}{"title": "hello"}})

	for _, conn := range []*websocket.Conn{c1, c2} {
		msg := readMessage(t, conn)
		assert.Equal(t, "posts", msg.Channel)
		assert.Equal(t, "create", msg.Action)
		post := msg.Post.(map[string]interface{})
		assert.Equal(t, "hello", post["title"])
	}
}

func TestEmitPreservesOrder(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	time.Sleep(100 * time.Millisecond)

	for _, action := range []string{"create", "update", "delete"} {
		hub.Emit(realtime.Message{Channel: "posts", Action: action})
	}

	for _, want := range []string{"create", "update", "delete"} {
		assert.Equal(t, want, readMessage(t, conn).Action)
	}
}

func TestDisconnectedClientDoesNotStallBroadcast(t *testing.T) {
	hub, url := startHub(t)

	gone := dial(t, url)
	stay := dial(t, url)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, gone.Close())
	time.Sleep(100 * time.Millisecond)

	hub.Emit(realtime.Message{Channel: "posts", Action: "update"})
	assert.Equal(t, "update", readMessage(t, stay).Action)
}
