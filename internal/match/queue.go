package match

import (
	"sync"
	"time"

	"github.com/XR-stb/GMatch/pkg/logger"
)

// Queue is the single FIFO of players awaiting a match. All operations are
// serialized by one mutex; TrySelect holds it across the whole scan and
// commit. The queue stores shared player references and never modifies the
// in_queue flag, the manager owns it.
type Queue struct {
	mu       sync.Mutex
	players  []*Player
	strategy Strategy
}

// NewQueue creates an empty queue with the default rating-based strategy.
func NewQueue() *Queue {
	return &Queue{
		strategy: NewRatingBasedStrategy(DefaultMaxRatingDiff),
	}
}

// Add appends a player to the tail. Adding an id that is already present is
// a caller bug and reported as an error.
func (q *Queue) Add(p *Player) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, waiting := range q.players {
		if waiting.ID == p.ID {
			return ErrAlreadyQueued
		}
	}
	q.players = append(q.players, p)
	return nil
}

// Remove drops the entry with the given id, preserving the order of the
// remainder. Removing an absent id is a no-op.
func (q *Queue) Remove(playerID uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(playerID)
}

func (q *Queue) removeLocked(playerID uint64) {
	for i, p := range q.players {
		if p.ID == playerID {
			q.players = append(q.players[:i], q.players[i+1:]...)
			return
		}
	}
}

// Size returns the current queue length.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.players)
}

// Snapshot copies the current entries in queue order.
func (q *Queue) Snapshot() []*Player {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Player, len(q.players))
	copy(out, q.players)
	return out
}

// SetStrategy swaps the compatibility predicate.
func (q *Queue) SetStrategy(s Strategy) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.strategy = s
}

// GetStrategy returns the current compatibility predicate.
func (q *Queue) GetStrategy() Strategy {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.strategy
}

// Clear removes every entry.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.players = nil
}

// TrySelect attempts to pick a compatible group of the required size. The
// group is anchored on the head waiter; remaining slots are filled scanning
// in queue order with candidates that match every already-selected member.
// If no full group exists and the head waiter has been waiting longer than
// timeoutMs (with forceOnTimeout enabled), the head N players are taken
// regardless of the strategy. Selected players are removed from the queue
// before returning; nil means no group was formed.
func (q *Queue) TrySelect(required int, forceOnTimeout bool, timeoutMs uint64) []*Player {
	q.mu.Lock()
	defer q.mu.Unlock()

	if required <= 0 || len(q.players) < required {
		return nil
	}

	group := make([]*Player, 0, required)
	group = append(group, q.players[0])

	for i := 1; i < len(q.players) && len(group) < required; i++ {
		candidate := q.players[i]
		compatible := true
		for _, member := range group {
			if !q.strategy.IsMatch(member, candidate) {
				compatible = false
				break
			}
		}
		if compatible {
			group = append(group, candidate)
		}
	}

	if len(group) < required && forceOnTimeout {
		waited := uint64(time.Now().UnixMilli()) - q.players[0].LastActivity()
		if waited > timeoutMs {
			logger.Warn("Force matching due to timeout",
				"player_id", q.players[0].ID,
				"waited_ms", waited,
				"threshold_ms", timeoutMs,
			)
			group = group[:0]
			group = append(group, q.players[:required]...)
		}
	}

	if len(group) < required {
		return nil
	}

	for _, p := range group {
		q.removeLocked(p.ID)
	}
	return group
}
