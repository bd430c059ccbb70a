package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/realtime-chat/modules/chat"
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

func newMockLogger() types.Logger {
	return &mockLogger{}
}

// fakeConn records written frames and counts pings. When gate is set,
// every write signals entered and then blocks until gate is closed.
type fakeConn struct {
	mu        sync.Mutex
	frames    [][]byte
	pings     int
	deadlines int
	closed    bool
	writeErr error
	gate     chan struct{}
	entered  chan struct{}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.gate != nil {
		c.entered <- struct{}{}
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	if messageType == websocket.PingMessage {
		c.pings++
		return nil
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(_ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines++
	return nil
}

func (c *fakeConn) counts() (pings, deadlines int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings, c.deadlines
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) written(t *testing.T) []Frame {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Frame, 0, len(c.frames))
	for _, raw := range c.frames {
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		out = append(out, f)
	}
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHub_SendAndBroadcast(t *testing.T) {
	hub := NewHub(8, 0, newMockLogger())
	alice, bob := &fakeConn{}, &fakeConn{}
	_, err := hub.Register("a", alice)
	require.NoError(t, err)
	_, err = hub.Register("b", bob)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Send("a", chat.Event{Name: chat.EventMessageNew, Data: map[string]string{"text": "hi"}})
	hub.Broadcast(chat.Event{Name: chat.EventUserList, Data: []string{"alice", "bob"}})
	hub.SendFrame("b", Frame{Event: "ack", ID: json.RawMessage(`7`), Data: map[string]bool{"success": true}})
	hub.Send("missing", chat.Event{Name: chat.EventMessageNew})

	hub.Unregister("a")
	hub.Unregister("b")

	got := alice.written(t)
	require.Len(t, got, 2)
	assert.Equal(t, chat.EventMessageNew, got[0].Event)
	assert.Equal(t, chat.EventUserList, got[1].Event)
	assert.Nil(t, got[0].ID)

	got = bob.written(t)
	require.Len(t, got, 2)
	assert.Equal(t, chat.EventUserList, got[0].Event)
	assert.Equal(t, "ack", got[1].Event)
	assert.JSONEq(t, `7`, string(got[1].ID))
	assert.Equal(t, map[string]any{"success": true}, got[1].Data)
}

func TestHub_FullQueueDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(1, 0, newMockLogger())
	conn := &fakeConn{gate: make(chan struct{}), entered: make(chan struct{}, 4)}
	_, err := hub.Register("a", conn)
	require.NoError(t, err)

	hub.Send("a", chat.Event{Name: "first"})
	select {
	case <-conn.entered:
	case <-time.After(time.Second):
		t.Fatal("write pump never picked up the first frame")
	}

	finished := make(chan struct{})
	go func() {
		hub.Send("a", chat.Event{Name: "second"})
		hub.Send("a", chat.Event{Name: "dropped"})
		hub.Broadcast(chat.Event{Name: "dropped"})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a full queue")
	}

	close(conn.gate)
	hub.Unregister("a")

	got := conn.written(t)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Event)
	assert.Equal(t, "second", got[1].Event)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(4, 0, newMockLogger())
	_, err := hub.Register("a", &fakeConn{})
	require.NoError(t, err)

	hub.Unregister("a")
	hub.Unregister("a")
	hub.Unregister("never-registered")
	assert.Equal(t, 0, hub.ClientCount())

	// Pushes to a gone connection are ignored.
	hub.Send("a", chat.Event{Name: chat.EventMessageNew})
}

func TestHub_WriteErrorClosesConnection(t *testing.T) {
	hub := NewHub(4, 0, newMockLogger())
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	_, err := hub.Register("a", conn)
	require.NoError(t, err)

	hub.Send("a", chat.Event{Name: "one"})
	hub.Send("a", chat.Event{Name: "two"})

	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	hub.Unregister("a")
	assert.Empty(t, conn.written(t))
}

func TestHub_RunClosesConnectionsAndRejectsRegistration(t *testing.T) {
	hub := NewHub(4, 0, newMockLogger())
	conn := &fakeConn{}
	_, err := hub.Register("a", conn)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	hub.Wait()

	assert.True(t, conn.isClosed())
	_, err = hub.Register("b", &fakeConn{})
	assert.ErrorIs(t, err, ErrHubClosed)

	hub.Unregister("a")
}

func TestHub_PingsIdleConnections(t *testing.T) {
	hub := NewHub(4, 20*time.Millisecond, newMockLogger())
	conn := &fakeConn{}
	_, err := hub.Register("a", conn)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		pings, _ := conn.counts()
		return pings >= 2
	}, time.Second, 5*time.Millisecond)

	hub.Send("a", chat.Event{Name: chat.EventMessageNew})
	hub.Unregister("a")

	pings, deadlines := conn.counts()
	assert.Equal(t, pings+1, deadlines, "every write carries a deadline")
	assert.Len(t, conn.written(t), 1)
	assert.False(t, conn.isClosed())
}

func TestHub_FailedPingClosesConnection(t *testing.T) {
	hub := NewHub(4, 10*time.Millisecond, newMockLogger())
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	_, err := hub.Register("a", conn)
	require.NoError(t, err)

	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	hub.Unregister("a")
}

func TestBroadcastModule_Lifecycle(t *testing.T) {
	m := NewModule(0, 0, newMockLogger())
	assert.Equal(t, "broadcast", m.Name())
	assert.Equal(t, DefaultQueueSize, m.GetHub().queueSize)
	assert.Equal(t, DefaultPingPeriod, m.GetHub().pingPeriod)

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))

	conn := &fakeConn{}
	_, err := m.GetHub().Register("a", conn)
	require.NoError(t, err)

	health := m.Health(ctx)
	assert.True(t, health.Healthy)
	assert.Equal(t, 1, health.Details["connected_clients"])

	require.NoError(t, m.Stop(ctx))
	assert.True(t, conn.isClosed())
}
