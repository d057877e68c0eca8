package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"autosave/internal/document/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to read messages from a WebSocket connection with a timeout.
func readMessage(t *testing.T, conn *websocket.Conn) model.LiveMessage {
	var msg model.LiveMessage
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from WebSocket")
	err = json.Unmarshal(p, &msg)
	require.NoError(t, err, "Failed to unmarshal LiveMessage JSON")
	return msg
}

func startHub(t *testing.T, load func() (json.RawMessage, error)) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(load)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hub.Done()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, time.Second, 10*time.Millisecond)
}

func TestHubIntegration(t *testing.T) {
	initialContent := `{"rows":[["Hello","World"]]}`
	hub, wsURL := startHub(t, func() (json.RawMessage, error) {
		return json.RawMessage(initialContent), nil
	})

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws", nil)
	require.NoError(t, err, "Client 1 failed to connect")
	defer conn1.Close()

	initMsg := readMessage(t, conn1)
	assert.Equal(t, InitType, initMsg.Type)
	assert.JSONEq(t, initialContent, string(initMsg.Data))

	conn2, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws", nil)
	require.NoError(t, err, "Client 2 failed to connect")
	defer conn2.Close()
	_ = readMessage(t, conn2)
	waitForClients(t, hub, 2)

	updated := `{"rows":[["Hello","World!"]]}`
	hub.Publish(json.RawMessage(updated))

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		msg := readMessage(t, conn)
		assert.Equal(t, UpdateType, msg.Type)
		assert.JSONEq(t, updated, string(msg.Data))
	}

	conn2.Close()
	waitForClients(t, hub, 1)
}

func TestHubPublishSkipsDuplicates(t *testing.T) {
	hub, wsURL := startHub(t, func() (json.RawMessage, error) {
		return nil, errors.New("no document yet")
	})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Publish(json.RawMessage(`{"v":1}`))
	hub.Publish(json.RawMessage(`{"v":1}`))
	hub.Publish(json.RawMessage(`{"v":2}`))

	// No init message was sent because loading failed, so the first
	// message is the first update, and the duplicate never arrives.
	first := readMessage(t, conn)
	assert.Equal(t, UpdateType, first.Type)
	assert.JSONEq(t, `{"v":1}`, string(first.Data))

	second := readMessage(t, conn)
	assert.JSONEq(t, `{"v":2}`, string(second.Data))
}

func TestHubPublishAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(func() (json.RawMessage, error) { return nil, nil })
	go hub.Run(ctx)
	cancel()
	<-hub.Done()

	done := make(chan struct{})
	go func() {
		hub.Publish(json.RawMessage(`{}`))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stopped hub")
	}
}
