package socket

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"autosave/internal/document/model"
	"autosave/pkg/logger"
)

const (
	InitType   = "init"   // Full document sent on connect
	UpdateType = "update" // Document changed
)

// Hub fans document updates out to every connected live client.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan json.RawMessage
	Register   chan *Client
	Unregister chan *Client

	// load returns the current document for newly connected clients.
	load func() (json.RawMessage, error)

	mu   sync.Mutex
	last []byte // last published document
	done chan struct{}
}

func NewHub(load func() (json.RawMessage, error)) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan json.RawMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		load:       load,
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns once ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client.Send)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Sugar.Infof("Live client %s connected", client.ID)

			doc, err := h.load()
			if err != nil {
				logger.Sugar.Warnf("No initial document for client %s: %v", client.ID, err)
				continue
			}
			if payload, err := encode(InitType, doc); err == nil {
				h.send(client, payload)
			}

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				logger.Sugar.Infof("Live client %s disconnected", client.ID)
			}
			h.mu.Unlock()

		case doc := <-h.Broadcast:
			payload, err := encode(UpdateType, doc)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				h.send(client, payload)
			}
		}
	}
}

// send queues payload for client, dropping the client if it is lagging.
// Only called from Run.
func (h *Hub) send(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		logger.Sugar.Warnf("Client %s's send buffer is full. Dropping.", client.ID)
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.Send)
		}
		h.mu.Unlock()
	}
}

// Publish broadcasts doc unless it equals the previously published one.
// It is a no-op once the hub has stopped.
func (h *Hub) Publish(doc json.RawMessage) {
	h.mu.Lock()
	if bytes.Equal(h.last, doc) {
		h.mu.Unlock()
		return
	}
	h.last = append(h.last[:0], doc...)
	h.mu.Unlock()

	select {
	case h.Broadcast <- doc:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func encode(msgType string, doc json.RawMessage) ([]byte, error) {
	return json.Marshal(model.LiveMessage{Type: msgType, Data: doc})
}
