package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/XR-stb/GMatch/internal/match"
)

// MatchmakingHandler serves diagnostic views over a running engine.
type MatchmakingHandler struct {
	manager *match.Manager
}

// NewMatchmakingHandler creates the handler.
func NewMatchmakingHandler(manager *match.Manager) *MatchmakingHandler {
	return &MatchmakingHandler{manager: manager}
}

// Status returns queue, registry and configuration counters.
func (h *MatchmakingHandler) Status(c *gin.Context) {
	status := gin.H{
		"queue_size":   h.manager.QueueSize(),
		"player_count": h.manager.PlayerCount(),
		"room_count":   h.manager.RoomCount(),
	}

	if mm := h.manager.Matchmaker(); mm != nil {
		status["force_match_on_timeout"] = mm.ForceMatchOnTimeout()
		status["match_timeout_ms"] = mm.MatchTimeoutThreshold()
		if s, ok := mm.GetStrategy().(*match.RatingBasedStrategy); ok {
			status["max_rating_diff"] = s.MaxRatingDiff()
		}
	}

	c.JSON(http.StatusOK, status)
}

// Rooms returns a summary of every room.
func (h *MatchmakingHandler) Rooms(c *gin.Context) {
	rooms := h.manager.Rooms()
	out := make([]gin.H, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, gin.H{
			"room_id":      room.ID,
			"status":       room.Status().String(),
			"player_count": room.PlayerCount(),
			"capacity":     room.Capacity,
			"avg_rating":   room.AverageRating(),
			"created_at":   room.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Player returns one player by id.
func (h *MatchmakingHandler) Player(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	p, err := h.manager.Player(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player_id": p.ID,
		"name":      p.Name,
		"rating":    p.Rating(),
		"in_queue":  p.InQueue(),
	})
}
