package chat

import (
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/events"
)

// eventPublisher forwards coordinator changes to the EventBus. Publish
// failures are logged; chat delivery never depends on them.
type eventPublisher struct {
	bus    mono.EventBus
	logger types.Logger
}

func (p *eventPublisher) MessageSent(msg domain.Message, at time.Time) {
	event := events.MessageSentEvent{
		MessageID: msg.ID,
		Room:      msg.Room,
		From:      msg.From,
		Text:      msg.Text,
		Private:   strings.HasPrefix(msg.Room, privateWirePrefix),
		Timestamp: at,
	}
	if err := events.MessageSentV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish MessageSent event", "error", err)
	}
}

func (p *eventPublisher) UserJoined(username string, at time.Time) {
	event := events.UserJoinedEvent{Username: username, Timestamp: at}
	if err := events.UserJoinedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish UserJoined event", "error", err)
	}
}

func (p *eventPublisher) UserLeft(username string, at time.Time) {
	event := events.UserLeftEvent{Username: username, Timestamp: at}
	if err := events.UserLeftV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish UserLeft event", "error", err)
	}
}

func (p *eventPublisher) RoomJoined(username, room string, at time.Time) {
	event := events.RoomJoinedEvent{Room: room, Username: username, Timestamp: at}
	if err := events.RoomJoinedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("Failed to publish RoomJoined event", "error", err)
	}
}
