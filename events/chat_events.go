package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted when a user sends a message.
type MessageSentEvent struct {
	MessageID string    `json:"message_id"`
	Room      string    `json:"room"`
	From      string    `json:"from"`
	Text      string    `json:"text"`
	Private   bool      `json:"private"`
	Timestamp time.Time `json:"timestamp"`
}

// UserJoinedEvent is emitted when a user logs in.
type UserJoinedEvent struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a logged-in connection goes away.
type UserLeftEvent struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomJoinedEvent is emitted when a user joins a broadcast room.
type RoomJoinedEvent struct {
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"chat",
		"MessageSent",
		"v1",
	)

	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"chat",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"chat",
		"UserLeft",
		"v1",
	)

	RoomJoinedV1 = helper.EventDefinition[RoomJoinedEvent](
		"chat",
		"RoomJoined",
		"v1",
	)
)
