package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/XR-stb/GMatch/internal/match"
	"github.com/XR-stb/GMatch/internal/protocol"
	"github.com/XR-stb/GMatch/pkg/logger"
	"github.com/XR-stb/GMatch/pkg/ratelimit"
)

// MatchServer accepts line-oriented TCP clients, dispatches their requests
// through the protocol handler and pushes engine notifications back through
// the hub. A client disconnect removes its bound player, mirroring an
// explicit remove.
type MatchServer struct {
	address string
	port    int

	manager *match.Manager
	handler *protocol.Handler
	hub     *Hub
	limiter *ratelimit.Limiter

	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewMatchServer wires a manager to the TCP transport. rateLimitRPS bounds
// requests per connection per second (0 disables limiting).
func NewMatchServer(address string, port int, manager *match.Manager, rateLimitRPS int) *MatchServer {
	s := &MatchServer{
		address: address,
		port:    port,
		manager: manager,
		handler: protocol.NewHandler(manager),
		hub:     NewHub(),
	}
	if rateLimitRPS > 0 {
		s.limiter = ratelimit.NewLimiter(int64(rateLimitRPS)*2, int64(rateLimitRPS))
	}

	s.handler.SetBindPlayerFunc(s.hub.BindPlayer)

	manager.SetMatchNotifyCallback(s.onMatchNotify)
	manager.SetPlayerStatusCallback(s.onPlayerStatus)

	return s
}

// Hub exposes the notification hub so other transports (WebSocket) can
// register their clients in the same fan-out.
func (s *MatchServer) Hub() *Hub {
	return s.hub
}

// Handler exposes the protocol handler for other transports.
func (s *MatchServer) Handler() *protocol.Handler {
	return s.handler
}

// Start binds the listener and launches the accept loop. A bind failure is
// fatal and returned to the caller; there is no retry.
func (s *MatchServer) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.address, s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	s.listener = listener

	logger.Info("Match server listening", "address", addr)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every connection, then shuts the manager
// down. Idempotent.
func (s *MatchServer) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	logger.Info("Stopping match server")
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.hub.CloseAll()
	s.wg.Wait()
	s.manager.Shutdown()
}

// IsRunning reports whether the accept loop is live.
func (s *MatchServer) IsRunning() bool {
	return s.running.Load()
}

// Addr returns the bound listener address, useful when port 0 was requested.
func (s *MatchServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *MatchServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				logger.Error("Accept failed", "error", err)
				continue
			}
			return
		}

		c := newTCPConn(conn)
		s.hub.Register(c)

		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			c.writePump()
		}()
		go func() {
			defer s.wg.Done()
			c.readLoop(func(line []byte) {
				s.handleRequest(c, line)
			})
			s.onDisconnect(c)
		}()
	}
}

func (s *MatchServer) handleRequest(c Client, line []byte) {
	if s.limiter != nil && !s.limiter.Allow(c.ID()) {
		c.Send(protocol.Encode(protocol.Response{
			Cmd:     protocol.CmdError,
			Success: false,
			Message: "Rate limited",
		}))
		return
	}

	resp := s.handler.HandleRequest(line, c.ID())
	if !c.Send(protocol.Encode(resp)) {
		logger.Warn("Response dropped, send buffer full", "conn_id", c.ID())
	}
}

// onDisconnect cleans up after a closed connection. The bound player is
// removed from the engine only when no other connection still speaks for
// it.
func (s *MatchServer) onDisconnect(c Client) {
	playerID, wasBound := s.hub.Unregister(c.ID())
	if s.limiter != nil {
		s.limiter.Forget(c.ID())
	}
	if !wasBound {
		return
	}
	if s.hub.HasPlayer(playerID) {
		return
	}
	logger.Info("Client disconnected, removing player",
		"conn_id", c.ID(),
		"player_id", playerID,
	)
	s.manager.RemovePlayer(playerID)
}

func (s *MatchServer) onMatchNotify(room *match.Room) {
	payload := protocol.Encode(protocol.NewMatchNotification(room))
	for _, p := range room.Players() {
		s.hub.SendToPlayer(p.ID, payload)
	}
}

func (s *MatchServer) onPlayerStatus(playerID uint64, inQueue bool) {
	payload := protocol.Encode(protocol.NewStatusNotification(playerID, inQueue))
	s.hub.SendToPlayer(playerID, payload)
}
