// Package websockets pushes snapshots to connected browsers.
package websockets

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jobayer109/My-monitor/internal/monitoring"
)

// MessageTypeSnapshot tags a pushed snapshot.
const MessageTypeSnapshot = "snapshot"

// Message is the envelope written to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks connected clients and fans snapshots out to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	latest     func() monitoring.Snapshot
	logger     *zap.Logger
}

// NewHub creates a hub. latest, when non-nil, supplies the snapshot sent
// to a client as soon as it connects.
func NewHub(latest func() monitoring.Snapshot, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latest:     latest,
		logger:     logger,
	}
}

// Run serves registrations and broadcasts every snapshot received on
// snapshots until ctx is done.
func (h *Hub) Run(ctx context.Context, snapshots <-chan monitoring.Snapshot) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			h.drop(client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client connected", zap.Int("clients", len(h.clients)))
			if h.latest != nil {
				h.sendTo(client, h.latest())
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug("websocket client disconnected", zap.Int("clients", len(h.clients)))
			}
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			message, err := encodeSnapshot(snap)
			if err != nil {
				h.logger.Error("failed to encode snapshot", zap.Error(err))
				continue
			}
			for client := range h.clients {
				h.deliver(client, message)
			}
		}
	}
}

func encodeSnapshot(snap monitoring.Snapshot) ([]byte, error) {
	return json.Marshal(Message{Type: MessageTypeSnapshot, Data: snap})
}

func (h *Hub) sendTo(client *Client, snap monitoring.Snapshot) {
	message, err := encodeSnapshot(snap)
	if err != nil {
		h.logger.Error("failed to encode snapshot", zap.Error(err))
		return
	}
	h.deliver(client, message)
}

// deliver queues message for client, dropping clients that fall behind.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.logger.Warn("websocket client too slow, disconnecting")
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}
