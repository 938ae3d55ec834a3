package match

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, playersPerRoom int) *Manager {
	t.Helper()
	m := NewManager()
	m.Init(playersPerRoom)
	t.Cleanup(m.Shutdown)
	return m
}

func TestManager_PlayerManagement(t *testing.T) {
	m := newTestManager(t, 2)

	p1 := m.CreatePlayer("Player1", 1500)
	p2 := m.CreatePlayer("Player2", 1600)
	assert.Equal(t, 2, m.PlayerCount())

	got, err := m.Player(p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Player1", got.Name)
	assert.Equal(t, 1500, got.Rating())

	m.RemovePlayer(p1.ID)
	assert.Equal(t, 1, m.PlayerCount())

	_, err = m.Player(p1.ID)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = m.Player(p2.ID)
	assert.NoError(t, err)
}

func TestManager_MonotonicIDsNoReuse(t *testing.T) {
	m := newTestManager(t, 2)

	a := m.CreatePlayer("A", 1500)
	b := m.CreatePlayer("B", 1500)
	m.RemovePlayer(a.ID)
	c := m.CreatePlayer("C", 1500)

	assert.Greater(t, b.ID, a.ID)
	assert.Greater(t, c.ID, b.ID)
}

func TestManager_JoinLeaveLaws(t *testing.T) {
	m := newTestManager(t, 3) // large room so the loop cannot consume players

	p := m.CreatePlayer("P", 1500)

	before := m.QueueSize()
	assert.True(t, m.JoinMatchmaking(p.ID))
	assert.True(t, p.InQueue())
	assert.Equal(t, before+1, m.QueueSize())

	// Double join is an illegal transition, no duplicate entry.
	assert.False(t, m.JoinMatchmaking(p.ID))
	assert.Equal(t, before+1, m.QueueSize())

	assert.True(t, m.LeaveMatchmaking(p.ID))
	assert.False(t, p.InQueue())
	assert.Equal(t, before, m.QueueSize())

	// Leave when not queued fails and changes nothing.
	assert.False(t, m.LeaveMatchmaking(p.ID))

	// Unknown ids fail.
	assert.False(t, m.JoinMatchmaking(9999))
	assert.False(t, m.LeaveMatchmaking(9999))
}

func TestManager_RemoveQueuedPlayer(t *testing.T) {
	m := newTestManager(t, 3)

	p := m.CreatePlayer("P", 1500)
	require.True(t, m.JoinMatchmaking(p.ID))
	require.Equal(t, 1, m.QueueSize())

	m.RemovePlayer(p.ID)
	assert.Equal(t, 0, m.QueueSize())
	assert.Equal(t, 0, m.PlayerCount())
	assert.False(t, p.InQueue())

	// Idempotent on a non-existent id.
	m.RemovePlayer(p.ID)
}

func TestManager_StatusCallbackSequence(t *testing.T) {
	m := newTestManager(t, 3)

	type event struct {
		playerID uint64
		inQueue  bool
	}
	var mu sync.Mutex
	var events []event
	m.SetPlayerStatusCallback(func(playerID uint64, inQueue bool) {
		mu.Lock()
		events = append(events, event{playerID, inQueue})
		mu.Unlock()
	})

	p1 := m.CreatePlayer("P1", 1500)
	p2 := m.CreatePlayer("P2", 1600)

	m.JoinMatchmaking(p1.ID)
	m.LeaveMatchmaking(p1.ID)
	m.JoinMatchmaking(p2.ID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, event{p1.ID, true}, events[0])
	assert.Equal(t, event{p1.ID, false}, events[1])
	assert.Equal(t, event{p2.ID, true}, events[2])

	assert.Equal(t, 1, m.QueueSize())
	assert.Equal(t, 0, m.RoomCount())
}

func TestManager_EndToEndMatch(t *testing.T) {
	m := newTestManager(t, 2)

	var mu sync.Mutex
	var rooms []*Room
	m.SetMatchNotifyCallback(func(room *Room) {
		mu.Lock()
		rooms = append(rooms, room)
		mu.Unlock()
	})

	p1 := m.CreatePlayer("P1", 1500)
	p2 := m.CreatePlayer("P2", 1600)
	require.True(t, m.JoinMatchmaking(p1.ID))
	require.True(t, m.JoinMatchmaking(p2.ID))

	deadline := time.After(2 * time.Second)
	for {
		if m.QueueSize() == 0 && m.RoomCount() == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("match did not form in time")
		case <-time.After(20 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, rooms, 1)
	ids := map[uint64]bool{}
	for _, p := range rooms[0].Players() {
		ids[p.ID] = true
		assert.False(t, p.InQueue())
	}
	assert.True(t, ids[p1.ID])
	assert.True(t, ids[p2.ID])
}

func TestManager_SetMaxRatingDifference(t *testing.T) {
	m := newTestManager(t, 2)
	m.SetMaxRatingDifference(100)

	s, ok := m.Matchmaker().GetStrategy().(*RatingBasedStrategy)
	require.True(t, ok)
	assert.Equal(t, 100, s.MaxRatingDiff())
}

func TestManager_InitShutdownIdempotent(t *testing.T) {
	m := NewManager()

	// Operations before Init fail gracefully.
	assert.False(t, m.JoinMatchmaking(1))
	assert.Equal(t, 0, m.QueueSize())

	m.Init(2)
	m.Init(4) // second init is a no-op

	p := m.CreatePlayer("P", 1500)
	assert.True(t, m.JoinMatchmaking(p.ID))

	m.Shutdown()
	assert.Equal(t, 0, m.PlayerCount())
	m.Shutdown()
}

func TestManager_PrintMatchmakingStatus(t *testing.T) {
	m := newTestManager(t, 3)

	p1 := m.CreatePlayer("Carol", 1900)
	p2 := m.CreatePlayer("Dave", 1200)
	m.JoinMatchmaking(p1.ID)
	m.JoinMatchmaking(p2.ID)

	var buf bytes.Buffer
	m.PrintMatchmakingStatus(&buf)
	out := buf.String()

	assert.Contains(t, out, "Matchmaking Status")
	assert.Contains(t, out, "Carol")
	assert.Contains(t, out, "Dave")
	assert.Contains(t, out, "players_per_room=3")
	assert.Contains(t, out, "max_rating_diff=300")

	// Queue dump is sorted by rating: Dave (1200) before Carol (1900).
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Dave")), bytes.Index(buf.Bytes(), []byte("Carol")))
}
