package match

import "errors"

// Common engine errors
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomNotFound   = errors.New("room not found")
)

// Queue specific errors
var (
	ErrAlreadyQueued = errors.New("player already in queue")
	ErrNotQueued     = errors.New("player not in queue")
)

// Manager specific errors
var (
	ErrNotInitialized = errors.New("manager not initialized")
)
