package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedPlayer(id uint64, rating int) *Player {
	p := NewPlayer(id, "p", rating)
	p.Touch(uint64(time.Now().UnixMilli()))
	return p
}

func TestQueue_AddAndRemove(t *testing.T) {
	q := NewQueue()

	require.NoError(t, q.Add(queuedPlayer(1, 1500)))
	require.NoError(t, q.Add(queuedPlayer(2, 1600)))
	assert.Equal(t, 2, q.Size())

	// Duplicate ids are a caller bug.
	assert.ErrorIs(t, q.Add(queuedPlayer(1, 1700)), ErrAlreadyQueued)
	assert.Equal(t, 2, q.Size())

	q.Remove(1)
	assert.Equal(t, 1, q.Size())

	// Removing an absent id is a no-op.
	q.Remove(1)
	q.Remove(42)
	assert.Equal(t, 1, q.Size())
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Add(queuedPlayer(1, 1500))
	q.Add(queuedPlayer(2, 1500))

	q.Clear()
	assert.Equal(t, 0, q.Size())
}

func TestQueue_TrySelectNotEnoughPlayers(t *testing.T) {
	q := NewQueue()
	q.Add(queuedPlayer(1, 1500))

	assert.Nil(t, q.TrySelect(2, false, 0))
	assert.Equal(t, 1, q.Size())
}

func TestQueue_TrySelectHeadAnchored(t *testing.T) {
	q := NewQueue()
	head := queuedPlayer(1, 1500)
	q.Add(head)
	q.Add(queuedPlayer(2, 1600))

	group := q.TrySelect(2, false, 0)
	require.Len(t, group, 2)
	assert.Equal(t, head.ID, group[0].ID, "group must anchor on the oldest waiter")
	assert.Equal(t, 0, q.Size())
}

func TestQueue_TrySelectSkipsIncompatible(t *testing.T) {
	q := NewQueue()
	q.SetStrategy(NewRatingBasedStrategy(300))
	q.Add(queuedPlayer(1, 1500))
	q.Add(queuedPlayer(2, 2000)) // too far from the head
	q.Add(queuedPlayer(3, 1600))

	group := q.TrySelect(2, false, 0)
	require.Len(t, group, 2)
	assert.Equal(t, uint64(1), group[0].ID)
	assert.Equal(t, uint64(3), group[1].ID)

	// The incompatible player stays, order preserved.
	assert.Equal(t, 1, q.Size())
	rest := q.Snapshot()
	assert.Equal(t, uint64(2), rest[0].ID)
}

func TestQueue_TrySelectAgainstSelectedSubset(t *testing.T) {
	// 1200 matches 1500 (diff 300) and 1500 matches 1700, but 1200 does
	// not match 1700: compatibility is checked against every selected
	// member, not only the head.
	q := NewQueue()
	q.SetStrategy(NewRatingBasedStrategy(300))
	q.Add(queuedPlayer(1, 1200))
	q.Add(queuedPlayer(2, 1500))
	q.Add(queuedPlayer(3, 1700))
	q.Add(queuedPlayer(4, 1400))

	group := q.TrySelect(3, false, 0)
	require.Len(t, group, 3)
	ids := []uint64{group[0].ID, group[1].ID, group[2].ID}
	assert.Equal(t, []uint64{1, 2, 4}, ids)
}

func TestQueue_TrySelectNoGroupWithoutTimeout(t *testing.T) {
	q := NewQueue()
	q.SetStrategy(NewRatingBasedStrategy(50))
	q.Add(queuedPlayer(1, 1000))
	q.Add(queuedPlayer(2, 2000))

	assert.Nil(t, q.TrySelect(2, false, 0))
	assert.Equal(t, 2, q.Size())
}

func TestQueue_TrySelectForceOnTimeout(t *testing.T) {
	q := NewQueue()
	q.SetStrategy(NewRatingBasedStrategy(50))

	stale := NewPlayer(1, "stale", 1000)
	stale.Touch(uint64(time.Now().UnixMilli()) - 500) // waited 500ms
	q.Add(stale)
	q.Add(queuedPlayer(2, 2000))

	// Head not old enough for a 5s threshold.
	assert.Nil(t, q.TrySelect(2, true, 5000))

	// With a 300ms threshold the greedy fallback fires and ignores the
	// strategy.
	group := q.TrySelect(2, true, 300)
	require.Len(t, group, 2)
	assert.Equal(t, uint64(1), group[0].ID)
	assert.Equal(t, uint64(2), group[1].ID)
	assert.Equal(t, 0, q.Size())
}

func TestQueue_SetStrategy(t *testing.T) {
	q := NewQueue()
	tight := NewRatingBasedStrategy(10)
	q.SetStrategy(tight)

	got, ok := q.GetStrategy().(*RatingBasedStrategy)
	require.True(t, ok)
	assert.Equal(t, 10, got.MaxRatingDiff())
}
