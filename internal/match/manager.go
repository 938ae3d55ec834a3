package match

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/XR-stb/GMatch/pkg/logger"
)

// PlayerStatusCallback receives queue membership transitions.
type PlayerStatusCallback func(playerID uint64, inQueue bool)

// Manager is the engine façade: it owns the player registry and the id
// allocator and forwards matchmaking operations to the matchmaker. It is a
// long-lived value constructed at startup and handed to the transport, so
// tests can build a fresh engine per case.
type Manager struct {
	playersMu    sync.Mutex
	players      map[uint64]*Player
	nextPlayerID uint64

	matchmaker     *Matchmaker
	playersPerRoom int
	initialized    bool
	initMu         sync.Mutex

	callbackMu     sync.RWMutex
	onMatch        MatchNotifyCallback
	onPlayerStatus PlayerStatusCallback
}

// NewManager creates an uninitialized manager. Call Init before use.
func NewManager() *Manager {
	return &Manager{
		players: make(map[uint64]*Player),
	}
}

// Init builds the matchmaker with the default rating-based strategy, wires
// the match-notify callback through to the external slot and starts the
// matching loop. Idempotent.
func (m *Manager) Init(playersPerRoom int) {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.initialized {
		return
	}
	if playersPerRoom < 1 {
		playersPerRoom = 2
	}

	m.playersPerRoom = playersPerRoom
	m.matchmaker = NewMatchmaker(playersPerRoom)
	m.matchmaker.SetStrategy(NewRatingBasedStrategy(DefaultMaxRatingDiff))
	m.matchmaker.SetMatchNotifyCallback(func(room *Room) {
		m.callbackMu.RLock()
		fn := m.onMatch
		m.callbackMu.RUnlock()
		if fn != nil {
			fn(room)
		}
	})
	m.matchmaker.Start()
	m.initialized = true

	logger.Info("Match manager initialized", "players_per_room", playersPerRoom)
}

// Shutdown stops the matching loop and clears the player registry.
// Idempotent.
func (m *Manager) Shutdown() {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if !m.initialized {
		return
	}
	m.matchmaker.Stop()

	m.playersMu.Lock()
	m.players = make(map[uint64]*Player)
	m.playersMu.Unlock()

	m.initialized = false
	logger.Info("Match manager shut down")
}

// CreatePlayer registers a new player. Ids are monotonic and never reused.
func (m *Manager) CreatePlayer(name string, rating int) *Player {
	m.playersMu.Lock()
	m.nextPlayerID++
	p := NewPlayer(m.nextPlayerID, name, rating)
	p.Touch(nowMs())
	m.players[p.ID] = p
	m.playersMu.Unlock()

	logger.Debug("Player created", "player_id", p.ID, "name", name, "rating", rating)
	return p
}

// Player looks up a player by id.
func (m *Manager) Player(playerID uint64) (*Player, error) {
	m.playersMu.Lock()
	defer m.playersMu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// RemovePlayer deletes a player whether or not it is queued. The registry
// lock is released before the matchmaker call; holding it across would
// deadlock against the matching loop's callback path.
func (m *Manager) RemovePlayer(playerID uint64) {
	m.playersMu.Lock()
	p, ok := m.players[playerID]
	if !ok {
		m.playersMu.Unlock()
		return
	}
	wasInQueue := p.InQueue()
	delete(m.players, playerID)
	m.playersMu.Unlock()

	if wasInQueue && m.matchmaker != nil {
		m.matchmaker.Remove(playerID)
		p.SetInQueue(false)
		m.fireStatus(playerID, false)
	}

	logger.Debug("Player removed", "player_id", playerID, "was_in_queue", wasInQueue)
}

// JoinMatchmaking enqueues a player. Returns false for an unknown id, an
// uninitialized manager or a player that is already queued. The in_queue
// flag is committed before the queue add becomes observable to the loop and
// rolled back if the add fails.
func (m *Manager) JoinMatchmaking(playerID uint64) bool {
	if m.matchmaker == nil {
		return false
	}

	m.playersMu.Lock()
	p, ok := m.players[playerID]
	if !ok || p.InQueue() {
		m.playersMu.Unlock()
		return false
	}
	p.Touch(nowMs())
	p.SetInQueue(true)
	m.playersMu.Unlock()

	if err := m.matchmaker.Add(p); err != nil {
		p.SetInQueue(false)
		logger.Warn("Queue add failed", "player_id", playerID, "error", err)
		return false
	}

	m.fireStatus(playerID, true)
	return true
}

// LeaveMatchmaking removes a player from the queue. Returns false for an
// unknown id or a player that is not queued. After it returns true, no
// subsequent selection will include the player.
func (m *Manager) LeaveMatchmaking(playerID uint64) bool {
	if m.matchmaker == nil {
		return false
	}

	m.playersMu.Lock()
	p, ok := m.players[playerID]
	if !ok || !p.InQueue() {
		m.playersMu.Unlock()
		return false
	}
	p.Touch(nowMs())
	p.SetInQueue(false)
	m.playersMu.Unlock()

	m.matchmaker.Remove(playerID)
	m.fireStatus(playerID, false)
	return true
}

// SetMatchNotifyCallback installs the external match sink.
func (m *Manager) SetMatchNotifyCallback(fn MatchNotifyCallback) {
	m.callbackMu.Lock()
	m.onMatch = fn
	m.callbackMu.Unlock()
}

// SetPlayerStatusCallback installs the queue-transition sink.
func (m *Manager) SetPlayerStatusCallback(fn PlayerStatusCallback) {
	m.callbackMu.Lock()
	m.onPlayerStatus = fn
	m.callbackMu.Unlock()
}

// fireStatus invokes the status callback outside every internal lock,
// swallowing panics so a misbehaving sink cannot corrupt engine state.
func (m *Manager) fireStatus(playerID uint64, inQueue bool) {
	m.callbackMu.RLock()
	fn := m.onPlayerStatus
	m.callbackMu.RUnlock()

	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Player status callback panicked",
				"player_id", playerID,
				"panic", r,
			)
		}
	}()
	fn(playerID, inQueue)
}

// SetMaxRatingDifference rebuilds the default strategy with a new threshold.
func (m *Manager) SetMaxRatingDifference(maxDiff int) {
	if m.matchmaker == nil {
		return
	}
	m.matchmaker.SetStrategy(NewRatingBasedStrategy(maxDiff))
}

// SetForceMatchOnTimeout toggles the greedy fallback path.
func (m *Manager) SetForceMatchOnTimeout(enable bool) {
	if m.matchmaker == nil {
		return
	}
	m.matchmaker.SetForceMatchOnTimeout(enable)
}

// SetMatchTimeoutThreshold sets the fallback deadline in milliseconds.
func (m *Manager) SetMatchTimeoutThreshold(ms uint64) {
	if m.matchmaker == nil {
		return
	}
	m.matchmaker.SetMatchTimeoutThreshold(ms)
}

// QueueSize returns the number of waiting players.
func (m *Manager) QueueSize() int {
	if m.matchmaker == nil {
		return 0
	}
	return m.matchmaker.QueueSize()
}

// PlayerCount returns the number of registered players.
func (m *Manager) PlayerCount() int {
	m.playersMu.Lock()
	defer m.playersMu.Unlock()
	return len(m.players)
}

// RoomCount returns the number of rooms formed so far.
func (m *Manager) RoomCount() int {
	if m.matchmaker == nil {
		return 0
	}
	return m.matchmaker.RoomCount()
}

// Rooms returns a snapshot of every room.
func (m *Manager) Rooms() []*Room {
	if m.matchmaker == nil {
		return nil
	}
	return m.matchmaker.Rooms()
}

// Room looks up a room by id.
func (m *Manager) Room(roomID uint64) (*Room, error) {
	if m.matchmaker == nil {
		return nil, ErrRoomNotFound
	}
	return m.matchmaker.Room(roomID)
}

// Matchmaker exposes the owned matchmaker for configuration and diagnostics.
func (m *Manager) Matchmaker() *Matchmaker {
	return m.matchmaker
}

// PrintMatchmakingStatus writes a diagnostic dump: queued players sorted by
// rating, active rooms and the effective configuration.
func (m *Manager) PrintMatchmakingStatus(out io.Writer) {
	if m.matchmaker == nil {
		fmt.Fprintln(out, "matchmaking not initialized")
		return
	}

	queued := m.matchmaker.QueueSnapshot()
	sort.Slice(queued, func(i, j int) bool {
		return queued[i].Rating() < queued[j].Rating()
	})

	fmt.Fprintf(out, "=== Matchmaking Status ===\n")
	fmt.Fprintf(out, "players: %d, queued: %d, rooms: %d\n",
		m.PlayerCount(), len(queued), m.matchmaker.RoomCount())

	fmt.Fprintf(out, "--- queue (by rating) ---\n")
	for _, p := range queued {
		fmt.Fprintf(out, "  #%d %s rating=%d waiting_since_ms=%d\n",
			p.ID, p.Name, p.Rating(), p.LastActivity())
	}

	fmt.Fprintf(out, "--- rooms ---\n")
	for _, room := range m.matchmaker.Rooms() {
		fmt.Fprintf(out, "  room %d status=%s players=%d/%d avg_rating=%.1f\n",
			room.ID, room.Status(), room.PlayerCount(), room.Capacity, room.AverageRating())
	}

	fmt.Fprintf(out, "--- config ---\n")
	fmt.Fprintf(out, "  players_per_room=%d force_match_on_timeout=%v match_timeout_ms=%d\n",
		m.playersPerRoom, m.matchmaker.ForceMatchOnTimeout(), m.matchmaker.MatchTimeoutThreshold())
	if s, ok := m.matchmaker.GetStrategy().(*RatingBasedStrategy); ok {
		fmt.Fprintf(out, "  max_rating_diff=%d\n", s.MaxRatingDiff())
	}
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}
