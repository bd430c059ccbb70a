package activity

import (
	"context"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/realtime-chat/events"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func TestActivityModule_CountsEvents(t *testing.T) {
	m := NewModule(10, &mockLogger{})
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.handleUserJoined(ctx, events.UserJoinedEvent{Username: "alice", Timestamp: at}, nil))
	require.NoError(t, m.handleRoomJoined(ctx, events.RoomJoinedEvent{Room: "random", Username: "alice", Timestamp: at}, nil))
	require.NoError(t, m.handleMessageSent(ctx, events.MessageSentEvent{
		MessageID: "m1", Room: "random", From: "alice", Text: "hi", Timestamp: at,
	}, nil))
	require.NoError(t, m.handleMessageSent(ctx, events.MessageSentEvent{
		MessageID: "m2", Room: "private:alice:bob", From: "alice", Text: "psst", Private: true, Timestamp: at,
	}, nil))
	require.NoError(t, m.handleUserLeft(ctx, events.UserLeftEvent{Username: "alice", Timestamp: at}, nil))

	assert.Equal(t, Counters{
		Logins:          1,
		Departures:      1,
		Messages:        1,
		PrivateMessages: 1,
		RoomJoins:       1,
	}, m.Counters())

	feed := m.Recent(0)
	require.Len(t, feed, 5)
	assert.Equal(t, TypeLogout, feed[0].Type)
	assert.Equal(t, TypeMessage, feed[1].Type)
	assert.Empty(t, feed[1].Room, "private channel ids are not recorded")
	assert.Equal(t, "random", feed[2].Room)
	assert.Equal(t, TypeRoomJoin, feed[3].Type)
	assert.Equal(t, TypeLogin, feed[4].Type)
}

func TestActivityModule_FeedIsBounded(t *testing.T) {
	m := NewModule(3, &mockLogger{})
	ctx := context.Background()

	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		require.NoError(t, m.handleUserJoined(ctx, events.UserJoinedEvent{Username: name}, nil))
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{"u5", "u4", "u3"}},
		{"limited", 2, []string{"u5", "u4"}},
		{"over capacity", 50, []string{"u5", "u4", "u3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range m.Recent(tt.limit) {
				got = append(got, e.Username)
			}
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, 5, m.Counters().Logins)
}

func TestActivityModule_RecentActivityService(t *testing.T) {
	m := NewModule(0, &mockLogger{})
	ctx := context.Background()
	require.NoError(t, m.handleUserJoined(ctx, events.UserJoinedEvent{Username: "alice"}, nil))

	resp, err := m.handleRecentActivity(ctx, RecentActivityRequest{Limit: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Counters.Logins)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "alice", resp.Entries[0].Username)

	health := m.Health(ctx)
	assert.True(t, health.Healthy)
	assert.Equal(t, 1, health.Details["logins"])
}
