// Package websocket pushes tournament snapshots to live viewers. WebSockets let the server
// push data the moment a score lands instead of clients polling the API, so every open
// leaderboard updates as soon as any scorer saves.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/gateway"
	"github.com/trentd187/golf-scorecard/internal/leaderboard"
	"github.com/trentd187/golf-scorecard/internal/models"
)

// sendBuffer is how many updates a client may fall behind before it is dropped.
const sendBuffer = 16

// Client is one connected viewer. Topic is a tournament id, or empty for the whole
// collection.
type Client struct {
	ID    string
	Topic string
	Send  chan []byte // closed by the hub when the client is removed
}

// NewClient returns a client watching topic.
func NewClient(topic string) *Client {
	return &Client{ID: uuid.NewString(), Topic: topic, Send: make(chan []byte, sendBuffer)}
}

// Update is the JSON message clients receive.
type Update struct {
	Type        string                 `json:"type"` // "snapshot", "tournament" or "deleted"
	ID          string                 `json:"id,omitempty"`
	IDs         []string               `json:"ids,omitempty"`
	Tournaments gateway.Snapshot       `json:"tournaments,omitempty"`
	Tournament  *models.Tournament     `json:"tournament,omitempty"`
	Leaderboard []leaderboard.Standing `json:"leaderboard,omitempty"`
}

// ClientObserver is told when clients come and go.
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
}

// Hub tracks connected clients grouped by topic and the latest encoded update of every
// topic. All map writes happen on the Run goroutine; mu lets ClientCount read alongside.
type Hub struct {
	log *zap.Logger
	obs ClientObserver

	mu      sync.RWMutex
	clients map[string]map[*Client]bool

	latest map[string][]byte // topic -> last update; owned by Run

	publish    chan gateway.Snapshot
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates an idle hub. Call Run to start it.
func NewHub(log *zap.Logger, obs ClientObserver) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:        log,
		obs:        obs,
		clients:    make(map[string]map[*Client]bool),
		latest:     make(map[string][]byte),
		publish:    make(chan gateway.Snapshot, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and publications until ctx ends, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					h.dropLocked(c)
				}
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.Topic] == nil {
				h.clients[c.Topic] = make(map[*Client]bool)
			}
			h.clients[c.Topic][c] = true
			h.mu.Unlock()
			if h.obs != nil {
				h.obs.ClientConnected()
			}
			if msg, ok := h.latest[c.Topic]; ok {
				h.deliver(c, msg)
			}

		case c := <-h.unregister:
			h.mu.Lock()
			h.dropLocked(c)
			h.mu.Unlock()

		case snap := <-h.publish:
			h.broadcast(snap)
		}
	}
}

// Publish queues snap for every client. It is safe to call from a gateway subscription.
func (h *Hub) Publish(snap gateway.Snapshot) {
	select {
	case h.publish <- snap:
	case <-h.done:
	}
}

// Register starts sending updates to c, beginning with the latest one for its topic.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

// Unregister removes c. Calling it more than once is harmless.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) broadcast(snap gateway.Snapshot) {
	ids := snap.IDs()
	h.store("", Update{Type: "snapshot", IDs: ids, Tournaments: snap})

	for _, id := range ids {
		t := snap[id]
		h.store(id, Update{
			Type:        "tournament",
			ID:          id,
			Tournament:  &t,
			Leaderboard: leaderboard.Build(&t.Course, t.Teams),
		})
	}
	// Topics that vanished from the collection get one "deleted" update.
	for topic := range h.latest {
		if _, ok := snap[topic]; topic != "" && !ok {
			h.store(topic, Update{Type: "deleted", ID: topic})
			delete(h.latest, topic)
		}
	}
}

// store encodes u as the latest update of topic and sends it to the topic's clients.
func (h *Hub) store(topic string, u Update) {
	msg, err := json.Marshal(u)
	if err != nil {
		h.log.Error("encode update", zap.String("topic", topic), zap.Error(err))
		return
	}
	h.latest[topic] = msg

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[topic]))
	for c := range h.clients[topic] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, msg)
	}
}

// deliver never blocks: a client whose buffer is full is dropped.
func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		h.log.Warn("dropping slow websocket client", zap.String("client", c.ID), zap.String("topic", c.Topic))
		h.mu.Lock()
		h.dropLocked(c)
		h.mu.Unlock()
	}
}

// Caller holds h.mu.
func (h *Hub) dropLocked(c *Client) {
	set, ok := h.clients[c.Topic]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.Topic)
	}
	if h.obs != nil {
		h.obs.ClientDisconnected()
	}
}
