package websockets

import (
	"context"
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

	"github.com/jobayer109/My-monitor/internal/monitoring"
)

type pushed struct {
	Type string              `json:"type"`
	Data monitoring.Snapshot `json:"data"`
}

func readPushed(t *testing.T, conn *websocket.Conn) pushed {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg pushed
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubPushesSnapshots(t *testing.T) {
	initial := monitoring.EmptySnapshot()
	initial.CollectionID = "initial"

	hub := NewHub(func() monitoring.Snapshot { return initial }, zap.NewNop())
	snapshots := make(chan monitoring.Snapshot)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, snapshots)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readPushed(t, conn)
	assert.Equal(t, MessageTypeSnapshot, first.Type)
	assert.Equal(t, "initial", first.Data.CollectionID)

	next := monitoring.EmptySnapshot()
	next.CollectionID = "next"
	snapshots <- next

	second := readPushed(t, conn)
	assert.Equal(t, "next", second.Data.CollectionID)
	assert.Equal(t, monitoring.NotAvailable, second.Data.GPUName)
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx, make(chan monitoring.Snapshot))
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client
	cancel()
	<-stopped

	_, open := <-client.send
	assert.False(t, open, "send channel is closed when the hub stops")
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.clients[slow] = true

	hub.deliver(slow, []byte("x"))

	assert.NotContains(t, hub.clients, slow)
	_, open := <-slow.send
	assert.False(t, open)
}
