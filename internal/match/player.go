package match

import "sync/atomic"

// DefaultRating is assigned when a player registers without one.
const DefaultRating = 1500

// Player is a registered participant. Records are shared by pointer between
// the manager, the queue and rooms; the mutable fields are atomics because
// the matching loop reads them while transport goroutines write.
type Player struct {
	ID   uint64
	Name string

	rating       atomic.Int64
	inQueue      atomic.Bool
	lastActivity atomic.Int64 // epoch milliseconds
}

// NewPlayer creates a player record. Rating values outside the nominal
// 0-4000 range are accepted as-is.
func NewPlayer(id uint64, name string, rating int) *Player {
	p := &Player{ID: id, Name: name}
	p.rating.Store(int64(rating))
	return p
}

func (p *Player) Rating() int {
	return int(p.rating.Load())
}

func (p *Player) SetRating(rating int) {
	p.rating.Store(int64(rating))
}

// InQueue reports queue membership. The manager owns this flag; the queue
// itself never touches it.
func (p *Player) InQueue() bool {
	return p.inQueue.Load()
}

func (p *Player) SetInQueue(inQueue bool) {
	p.inQueue.Store(inQueue)
}

// LastActivity returns the epoch-millisecond timestamp of the player's most
// recent manager-level operation.
func (p *Player) LastActivity() uint64 {
	return uint64(p.lastActivity.Load())
}

// Touch refreshes the activity timestamp. Any create/join/leave resets the
// wait clock used by the forced-match fallback.
func (p *Player) Touch(nowMs uint64) {
	p.lastActivity.Store(int64(nowMs))
}
