package match

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/XR-stb/GMatch/pkg/logger"
)

// matchLoopInterval is the cadence of the matching loop. Polling keeps the
// loop deterministic and bounds worst-case match latency at one tick.
const matchLoopInterval = 100 * time.Millisecond

// MatchNotifyCallback receives each room created by the matching loop.
type MatchNotifyCallback func(room *Room)

// Matchmaker owns the queue and the room registry and drives the periodic
// matching loop.
type Matchmaker struct {
	queue          *Queue
	playersPerRoom int

	roomsMu    sync.Mutex
	rooms      map[uint64]*Room
	nextRoomID uint64

	forceMatchOnTimeout   atomic.Bool
	matchTimeoutThreshold atomic.Uint64 // milliseconds

	notifyMu sync.RWMutex
	onMatch  MatchNotifyCallback

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMatchmaker creates a stopped matchmaker forming rooms of the given size.
func NewMatchmaker(playersPerRoom int) *Matchmaker {
	if playersPerRoom < 1 {
		playersPerRoom = 2
	}
	m := &Matchmaker{
		queue:          NewQueue(),
		playersPerRoom: playersPerRoom,
		rooms:          make(map[uint64]*Room),
	}
	m.forceMatchOnTimeout.Store(true)
	m.matchTimeoutThreshold.Store(5000)
	return m
}

// Start launches the matching loop. Calling Start on a running matchmaker
// is a no-op.
func (m *Matchmaker) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	logger.Info("Starting matchmaker", "players_per_room", m.playersPerRoom)

	m.wg.Add(1)
	go m.matchLoop()
}

// Stop requests termination, joins the loop, then clears the queue.
// Idempotent.
func (m *Matchmaker) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	m.wg.Wait()
	m.queue.Clear()
	logger.Info("Matchmaker stopped")
}

// Add forwards a player to the queue.
func (m *Matchmaker) Add(p *Player) error {
	return m.queue.Add(p)
}

// Remove forwards a queue removal by id.
func (m *Matchmaker) Remove(playerID uint64) {
	m.queue.Remove(playerID)
}

// QueueSize returns the number of waiting players.
func (m *Matchmaker) QueueSize() int {
	return m.queue.Size()
}

// QueueSnapshot copies the waiting players in queue order.
func (m *Matchmaker) QueueSnapshot() []*Player {
	return m.queue.Snapshot()
}

// SetStrategy swaps the queue's compatibility predicate.
func (m *Matchmaker) SetStrategy(s Strategy) {
	m.queue.SetStrategy(s)
}

// GetStrategy returns the queue's compatibility predicate.
func (m *Matchmaker) GetStrategy() Strategy {
	return m.queue.GetStrategy()
}

// SetForceMatchOnTimeout enables or disables the greedy fallback path.
func (m *Matchmaker) SetForceMatchOnTimeout(enable bool) {
	m.forceMatchOnTimeout.Store(enable)
}

// ForceMatchOnTimeout reports whether the fallback path is enabled.
func (m *Matchmaker) ForceMatchOnTimeout() bool {
	return m.forceMatchOnTimeout.Load()
}

// SetMatchTimeoutThreshold sets the head-waiter deadline in milliseconds.
func (m *Matchmaker) SetMatchTimeoutThreshold(ms uint64) {
	m.matchTimeoutThreshold.Store(ms)
}

// MatchTimeoutThreshold returns the head-waiter deadline in milliseconds.
func (m *Matchmaker) MatchTimeoutThreshold() uint64 {
	return m.matchTimeoutThreshold.Load()
}

// SetMatchNotifyCallback installs the sink invoked for every room the loop
// creates. Must be set before Start to avoid missing early matches.
func (m *Matchmaker) SetMatchNotifyCallback(fn MatchNotifyCallback) {
	m.notifyMu.Lock()
	m.onMatch = fn
	m.notifyMu.Unlock()
}

// CreateRoom synthesizes a room from the given players, assigns the next
// room id and registers it. Used by the loop and exposed for premade
// groups. Room ids are monotonic within a matchmaker, starting at 1.
func (m *Matchmaker) CreateRoom(players []*Player) *Room {
	m.roomsMu.Lock()
	m.nextRoomID++
	room := NewRoom(m.nextRoomID, len(players), 0, 0)
	for _, p := range players {
		room.AddPlayer(p)
	}
	m.rooms[room.ID] = room
	m.roomsMu.Unlock()
	return room
}

// Rooms returns a snapshot of the room registry values, order unspecified.
func (m *Matchmaker) Rooms() []*Room {
	m.roomsMu.Lock()
	defer m.roomsMu.Unlock()

	result := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		result = append(result, room)
	}
	return result
}

// Room looks up a room by id.
func (m *Matchmaker) Room(roomID uint64) (*Room, error) {
	m.roomsMu.Lock()
	defer m.roomsMu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RoomCount returns the number of registered rooms.
func (m *Matchmaker) RoomCount() int {
	m.roomsMu.Lock()
	defer m.roomsMu.Unlock()
	return len(m.rooms)
}

func (m *Matchmaker) matchLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(matchLoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.runMatch()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Matchmaker) runMatch() {
	group := m.queue.TrySelect(
		m.playersPerRoom,
		m.forceMatchOnTimeout.Load(),
		m.matchTimeoutThreshold.Load(),
	)
	if group == nil {
		return
	}

	// Selected players are out of the queue; their flag must agree before
	// the room becomes observable.
	for _, p := range group {
		p.SetInQueue(false)
	}

	room := m.CreateRoom(group)

	logger.Info("Match found",
		"room_id", room.ID,
		"players", room.PlayerCount(),
		"capacity", room.Capacity,
	)

	m.notify(room)
}

// notify invokes the match callback outside every internal lock. A panic in
// the callback is logged and swallowed; it must not kill the loop.
func (m *Matchmaker) notify(room *Room) {
	m.notifyMu.RLock()
	fn := m.onMatch
	m.notifyMu.RUnlock()

	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Match notify callback panicked",
				"room_id", room.ID,
				"panic", r,
			)
		}
	}()
	fn(room)
}
