package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayer_Basics(t *testing.T) {
	p := NewPlayer(7, "Alice", 1800)

	assert.Equal(t, uint64(7), p.ID)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, 1800, p.Rating())
	assert.False(t, p.InQueue())
	assert.Equal(t, uint64(0), p.LastActivity())

	p.SetRating(2100)
	assert.Equal(t, 2100, p.Rating())

	p.SetInQueue(true)
	assert.True(t, p.InQueue())
	p.SetInQueue(false)
	assert.False(t, p.InQueue())
}

func TestPlayer_Touch(t *testing.T) {
	p := NewPlayer(1, "Bob", DefaultRating)

	p.Touch(12345)
	assert.Equal(t, uint64(12345), p.LastActivity())

	p.Touch(99999)
	assert.Equal(t, uint64(99999), p.LastActivity())
}
