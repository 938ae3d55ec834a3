package protocol

import (
	"encoding/json"

	"github.com/XR-stb/GMatch/internal/match"
)

// Command names recognized by the handler.
const (
	CmdCreatePlayer     = "create_player"
	CmdJoinMatchmaking  = "join_matchmaking"
	CmdLeaveMatchmaking = "leave_matchmaking"
	CmdGetRooms         = "get_rooms"
	CmdGetPlayerInfo    = "get_player_info"
	CmdGetQueueStatus   = "get_queue_status"

	// Server-push notifications reuse the response envelope.
	CmdMatchNotify   = "match_notify"
	CmdStatusChanged = "status_changed"

	// CmdError is the response cmd for unparseable envelopes.
	CmdError = "error"
)

// Request is the client-to-server envelope.
type Request struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data"`
}

// Response is the server-to-client envelope, used for both replies and
// push notifications.
type Response struct {
	Cmd     string      `json:"cmd"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PlayerInfo is the wire form of a player.
type PlayerInfo struct {
	PlayerID uint64 `json:"player_id"`
	Name     string `json:"name"`
	Rating   int    `json:"rating"`
}

// PlayerDetail extends PlayerInfo with queue membership, returned by
// get_player_info.
type PlayerDetail struct {
	PlayerInfo
	InQueue bool `json:"in_queue"`
}

// RoomInfo is the wire form of a room summary.
type RoomInfo struct {
	RoomID      uint64  `json:"room_id"`
	Status      string  `json:"status"`
	PlayerCount int     `json:"player_count"`
	Capacity    int     `json:"capacity"`
	AvgRating   float64 `json:"avg_rating"`
}

// MatchNotifyData is the payload pushed to each member of a new room.
type MatchNotifyData struct {
	RoomID  uint64       `json:"room_id"`
	Players []PlayerInfo `json:"players"`
}

// StatusChangedData is the payload pushed on queue transitions.
type StatusChangedData struct {
	PlayerID uint64 `json:"player_id"`
	Status   string `json:"status"`
}

// NewMatchNotification builds the match_notify push for a room.
func NewMatchNotification(room *match.Room) Response {
	players := room.Players()
	infos := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		infos = append(infos, PlayerInfo{
			PlayerID: p.ID,
			Name:     p.Name,
			Rating:   p.Rating(),
		})
	}
	return Response{
		Cmd:     CmdMatchNotify,
		Success: true,
		Message: "Match found",
		Data: MatchNotifyData{
			RoomID:  room.ID,
			Players: infos,
		},
	}
}

// NewStatusNotification builds the status_changed push for a player.
func NewStatusNotification(playerID uint64, inQueue bool) Response {
	status := "left_queue"
	if inQueue {
		status = "in_queue"
	}
	return Response{
		Cmd:     CmdStatusChanged,
		Success: true,
		Message: "Player status changed",
		Data: StatusChangedData{
			PlayerID: playerID,
			Status:   status,
		},
	}
}

// Encode marshals a response for the wire.
func Encode(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// Payloads are plain structs; a marshal failure is a programming
		// error surfaced as a generic envelope.
		fallback, _ := json.Marshal(Response{
			Cmd:     CmdError,
			Success: false,
			Message: "internal encoding error",
		})
		return fallback
	}
	return data
}
