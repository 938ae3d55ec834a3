package protocol

import (
	"encoding/json"
	"errors"

	"github.com/XR-stb/GMatch/internal/match"
	"github.com/XR-stb/GMatch/pkg/logger"
)

// HandlerFunc processes one command payload on behalf of a connection.
type HandlerFunc func(data json.RawMessage, connID string) Response

// Handler maps textual commands onto engine calls. The connection id is
// threaded through so the transport can bind players to connections.
type Handler struct {
	manager  *match.Manager
	commands map[string]HandlerFunc

	// bindPlayer is invoked when a command establishes which player a
	// connection speaks for. Set by the transport; may be nil in tests.
	bindPlayer func(connID string, playerID uint64)
}

// NewHandler creates a handler with the default command set registered.
func NewHandler(manager *match.Manager) *Handler {
	h := &Handler{
		manager:  manager,
		commands: make(map[string]HandlerFunc),
	}
	h.Register(CmdCreatePlayer, h.handleCreatePlayer)
	h.Register(CmdJoinMatchmaking, h.handleJoinMatchmaking)
	h.Register(CmdLeaveMatchmaking, h.handleLeaveMatchmaking)
	h.Register(CmdGetRooms, h.handleGetRooms)
	h.Register(CmdGetPlayerInfo, h.handleGetPlayerInfo)
	h.Register(CmdGetQueueStatus, h.handleGetQueueStatus)
	return h
}

// Register installs or replaces a command handler.
func (h *Handler) Register(cmd string, fn HandlerFunc) {
	h.commands[cmd] = fn
}

// SetBindPlayerFunc installs the transport's connection-to-player binding
// hook.
func (h *Handler) SetBindPlayerFunc(fn func(connID string, playerID uint64)) {
	h.bindPlayer = fn
}

// HandleRequest parses one request line and dispatches it. It always
// returns a response envelope; protocol errors never propagate.
func (h *Handler) HandleRequest(raw []byte, connID string) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil || req.Cmd == "" {
		return Response{Cmd: CmdError, Success: false, Message: "Invalid JSON format"}
	}

	logger.Debug("Request received", "cmd", req.Cmd, "conn_id", connID)

	fn, ok := h.commands[req.Cmd]
	if !ok {
		return Response{Cmd: req.Cmd, Success: false, Message: "Unknown command"}
	}
	return fn(req.Data, connID)
}

type createPlayerReq struct {
	Name   string `json:"name"`
	Rating *int   `json:"rating"`
}

func (h *Handler) handleCreatePlayer(data json.RawMessage, connID string) Response {
	var req createPlayerReq
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return Response{Cmd: CmdCreatePlayer, Success: false, Message: "Invalid request data"}
		}
	}
	if req.Name == "" {
		req.Name = "Player"
	}
	rating := match.DefaultRating
	if req.Rating != nil {
		rating = *req.Rating
	}

	p := h.manager.CreatePlayer(req.Name, rating)
	if h.bindPlayer != nil {
		h.bindPlayer(connID, p.ID)
	}

	return Response{
		Cmd:     CmdCreatePlayer,
		Success: true,
		Message: "Player created successfully",
		Data: PlayerInfo{
			PlayerID: p.ID,
			Name:     p.Name,
			Rating:   p.Rating(),
		},
	}
}

type playerIDReq struct {
	PlayerID *uint64 `json:"player_id"`
}

func parsePlayerID(data json.RawMessage) (uint64, error) {
	var req playerIDReq
	if len(data) == 0 {
		return 0, errors.New("player_id is required")
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return 0, errors.New("invalid player_id")
	}
	if req.PlayerID == nil {
		return 0, errors.New("player_id is required")
	}
	return *req.PlayerID, nil
}

func (h *Handler) handleJoinMatchmaking(data json.RawMessage, connID string) Response {
	playerID, err := parsePlayerID(data)
	if err != nil {
		return Response{Cmd: CmdJoinMatchmaking, Success: false, Message: err.Error()}
	}

	if h.bindPlayer != nil {
		if _, lookupErr := h.manager.Player(playerID); lookupErr == nil {
			h.bindPlayer(connID, playerID)
		}
	}

	if !h.manager.JoinMatchmaking(playerID) {
		return Response{Cmd: CmdJoinMatchmaking, Success: false, Message: "Failed to join matchmaking queue"}
	}
	return Response{Cmd: CmdJoinMatchmaking, Success: true, Message: "Joined matchmaking queue", Data: struct{}{}}
}

func (h *Handler) handleLeaveMatchmaking(data json.RawMessage, connID string) Response {
	playerID, err := parsePlayerID(data)
	if err != nil {
		return Response{Cmd: CmdLeaveMatchmaking, Success: false, Message: err.Error()}
	}

	if !h.manager.LeaveMatchmaking(playerID) {
		return Response{Cmd: CmdLeaveMatchmaking, Success: false, Message: "Failed to leave matchmaking queue"}
	}
	return Response{Cmd: CmdLeaveMatchmaking, Success: true, Message: "Left matchmaking queue", Data: struct{}{}}
}

func (h *Handler) handleGetRooms(_ json.RawMessage, _ string) Response {
	rooms := h.manager.Rooms()
	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, RoomInfo{
			RoomID:      room.ID,
			Status:      room.Status().String(),
			PlayerCount: room.PlayerCount(),
			Capacity:    room.Capacity,
			AvgRating:   room.AverageRating(),
		})
	}
	return Response{Cmd: CmdGetRooms, Success: true, Message: "Rooms retrieved successfully", Data: infos}
}

func (h *Handler) handleGetPlayerInfo(data json.RawMessage, _ string) Response {
	playerID, err := parsePlayerID(data)
	if err != nil {
		return Response{Cmd: CmdGetPlayerInfo, Success: false, Message: err.Error()}
	}

	p, err := h.manager.Player(playerID)
	if err != nil {
		return Response{Cmd: CmdGetPlayerInfo, Success: false, Message: "Player not found"}
	}
	return Response{
		Cmd:     CmdGetPlayerInfo,
		Success: true,
		Message: "Player info retrieved successfully",
		Data: PlayerDetail{
			PlayerInfo: PlayerInfo{
				PlayerID: p.ID,
				Name:     p.Name,
				Rating:   p.Rating(),
			},
			InQueue: p.InQueue(),
		},
	}
}

func (h *Handler) handleGetQueueStatus(_ json.RawMessage, _ string) Response {
	return Response{
		Cmd:     CmdGetQueueStatus,
		Success: true,
		Message: "Queue status retrieved successfully",
		Data: map[string]int{
			"queue_size": h.manager.QueueSize(),
		},
	}
}
