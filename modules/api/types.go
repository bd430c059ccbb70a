package api

import (
	"encoding/json"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/modules/activity"
)

// Client command names.
const (
	CommandLogin       = "login"
	CommandSendMessage = "message:send"
	CommandJoinRoom    = "room:join"
	CommandTypingStart = "typing:start"
	CommandTypingStop  = "typing:stop"
	CommandGetHistory  = "getHistory"
)

// Server frame names not produced by the chat coordinator.
const (
	EventAck   = "ack"
	EventError = "error"
)

// InboundFrame is a client command. ID is echoed on the ack.
type InboundFrame struct {
	Event string          `json:"event"`
	ID    json.RawMessage `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the data of message:send.
type SendMessagePayload struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// ErrorAck is the ack body of a failed command.
type ErrorAck struct {
	Error string `json:"error"`
}

// UserListResponse is the API response for listing connected users.
type UserListResponse struct {
	Users []domain.User `json:"users"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []domain.Room `json:"rooms"`
}

// HistoryResponse is the API response for message history.
type HistoryResponse struct {
	Room     string           `json:"room"`
	Messages []domain.Message `json:"messages"`
}

// ActivityResponse is the API response for the activity feed.
type ActivityResponse struct {
	Counters activity.Counters `json:"counters"`
	Entries  []activity.Entry  `json:"entries"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
