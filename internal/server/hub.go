package server

import (
	"sync"

	"github.com/XR-stb/GMatch/pkg/logger"
)

// Client is one connected transport session (TCP or WebSocket). Send must
// not block; implementations drop the message and return false when their
// outbound buffer is full.
type Client interface {
	ID() string
	Send(payload []byte) bool
	Close()
}

// Hub tracks connected clients and the player-to-connection binding used to
// push notifications. A player may be bound to several connections; pushes
// fan out to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client
	// playerID -> set of connection ids
	players map[uint64]map[string]struct{}
	// connection id -> bound player
	bound map[string]uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]Client),
		players: make(map[uint64]map[string]struct{}),
		bound:   make(map[string]uint64),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c Client) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	total := len(h.clients)
	h.mu.Unlock()

	logger.Info("Client registered", "conn_id", c.ID(), "total_clients", total)
}

// Unregister removes a client and returns the player it was bound to, if
// any.
func (h *Hub) Unregister(connID string) (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[connID]; !exists {
		return 0, false
	}
	delete(h.clients, connID)

	playerID, wasBound := h.bound[connID]
	if wasBound {
		delete(h.bound, connID)
		if conns, ok := h.players[playerID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(h.players, playerID)
			}
		}
	}

	logger.Info("Client unregistered",
		"conn_id", connID,
		"total_clients", len(h.clients),
	)
	return playerID, wasBound
}

// BindPlayer associates a connection with a player. A connection speaks for
// at most one player; rebinding moves it.
func (h *Hub) BindPlayer(connID string, playerID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[connID]; !exists {
		return
	}

	if prev, ok := h.bound[connID]; ok && prev != playerID {
		if conns, ok := h.players[prev]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(h.players, prev)
			}
		}
	}

	h.bound[connID] = playerID
	if h.players[playerID] == nil {
		h.players[playerID] = make(map[string]struct{})
	}
	h.players[playerID][connID] = struct{}{}
}

// BoundPlayer returns the player a connection speaks for.
func (h *Hub) BoundPlayer(connID string) (uint64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	playerID, ok := h.bound[connID]
	return playerID, ok
}

// HasPlayer reports whether any connection is still bound to the player.
func (h *Hub) HasPlayer(playerID uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players[playerID]) > 0
}

// SendToPlayer pushes a payload to every connection bound to the player.
func (h *Hub) SendToPlayer(playerID uint64, payload []byte) {
	h.mu.RLock()
	targets := make([]Client, 0, 1)
	for connID := range h.players[playerID] {
		if c, ok := h.clients[connID]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.Send(payload) {
			logger.Warn("Client send buffer full, dropping notification",
				"conn_id", c.ID(),
				"player_id", playerID,
			)
		}
	}
}

// Broadcast pushes a payload to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	targets := make([]Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(payload)
	}
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	targets := make([]Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
