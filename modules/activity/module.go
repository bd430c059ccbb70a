package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/realtime-chat/events"
)

// DefaultFeedSize bounds the recent-activity feed.
const DefaultFeedSize = 100

// ActivityModule records chat events as counters and a bounded feed.
// It is a driven adapter fed through the EventBus.
type ActivityModule struct {
	feed     []Entry
	feedSize int
	counters Counters
	mu       sync.RWMutex
	logger   types.Logger
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)
var _ mono.HealthCheckableModule = (*ActivityModule)(nil)

func NewModule(feedSize int, logger types.Logger) *ActivityModule {
	if feedSize <= 0 {
		feedSize = DefaultFeedSize
	}
	return &ActivityModule{
		feed:     make([]Entry, 0, feedSize),
		feedSize: feedSize,
		logger:   logger,
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.MessageSentV1, m.handleMessageSent, m); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserJoinedV1, m.handleUserJoined, m); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserLeftV1, m.handleUserLeft, m); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.RoomJoinedV1, m.handleRoomJoined, m); err != nil {
		return fmt.Errorf("failed to register RoomJoined consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", "MessageSent, UserJoined, UserLeft, RoomJoined")
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRecentActivity,
		json.Unmarshal,
		json.Marshal,
		m.handleRecentActivity,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRecentActivity, err)
	}
	return nil
}

func (m *ActivityModule) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	// Private channel ids stay out of the feed.
	room := event.Room
	if event.Private {
		room = ""
	}
	m.record(Entry{Type: TypeMessage, Username: event.From, Room: room, Timestamp: event.Timestamp}, func(c *Counters) {
		if event.Private {
			c.PrivateMessages++
		} else {
			c.Messages++
		}
	})
	return nil
}

func (m *ActivityModule) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.record(Entry{Type: TypeLogin, Username: event.Username, Timestamp: event.Timestamp}, func(c *Counters) {
		c.Logins++
	})
	return nil
}

func (m *ActivityModule) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.record(Entry{Type: TypeLogout, Username: event.Username, Timestamp: event.Timestamp}, func(c *Counters) {
		c.Departures++
	})
	return nil
}

func (m *ActivityModule) handleRoomJoined(_ context.Context, event events.RoomJoinedEvent, _ *mono.Msg) error {
	m.record(Entry{Type: TypeRoomJoin, Username: event.Username, Room: event.Room, Timestamp: event.Timestamp}, func(c *Counters) {
		c.RoomJoins++
	})
	return nil
}

func (m *ActivityModule) handleRecentActivity(_ context.Context, req RecentActivityRequest, _ *mono.Msg) (RecentActivityResponse, error) {
	return RecentActivityResponse{
		Counters: m.Counters(),
		Entries:  m.Recent(req.Limit),
	}, nil
}

func (m *ActivityModule) record(entry Entry, count func(*Counters)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count(&m.counters)
	if len(m.feed) == m.feedSize {
		copy(m.feed, m.feed[1:])
		m.feed = m.feed[:len(m.feed)-1]
	}
	m.feed = append(m.feed, entry)
}

// Recent returns up to limit of the newest entries, newest first. A limit
// of zero or less returns the whole feed.
func (m *ActivityModule) Recent(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.feed) {
		limit = len(m.feed)
	}
	result := make([]Entry, 0, limit)
	for i := len(m.feed) - 1; i >= len(m.feed)-limit; i-- {
		result = append(result, m.feed[i])
	}
	return result
}

func (m *ActivityModule) Counters() Counters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters
}

func (m *ActivityModule) Health(_ context.Context) mono.HealthStatus {
	c := m.Counters()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"logins":   c.Logins,
			"messages": c.Messages + c.PrivateMessages,
		},
	}
}

func (m *ActivityModule) Start(_ context.Context) error {
	m.logger.Info("Activity module started", "feedSize", m.feedSize)
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped")
	return nil
}
