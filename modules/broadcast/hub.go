package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"

	"github.com/example/realtime-chat/modules/chat"
)

const (
	// DefaultQueueSize is the per-client outbound buffer.
	DefaultQueueSize = 256

	// DefaultPingPeriod is how often an idle connection is pinged. It must
	// be shorter than the reader's pong timeout.
	DefaultPingPeriod = 54 * time.Second

	writeWait = 10 * time.Second
)

// ErrHubClosed is returned by Register after shutdown began.
var ErrHubClosed = errors.New("hub is shut down")

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Frame is a server-to-client websocket frame. Acks carry the id of the
// command they answer.
type Frame struct {
	Event string          `json:"event"`
	ID    json.RawMessage `json:"id,omitempty"`
	Data  any             `json:"data,omitempty"`
}

// Client is a registered connection with its own write pump.
type Client struct {
	ID   string
	conn Conn
	send chan []byte
	done chan struct{}
}

// Hub tracks live connections and queues frames to them. Enqueueing never
// blocks: a full queue drops the frame.
type Hub struct {
	clients    map[string]*Client // connID -> Client
	queueSize  int
	pingPeriod time.Duration
	closed     bool
	done       chan struct{}
	mu         sync.RWMutex
	logger     types.Logger
}

var _ chat.Transport = (*Hub)(nil)

// NewHub creates a new Hub. Each client's write pump pings it every
// pingPeriod.
func NewHub(queueSize int, pingPeriod time.Duration, logger types.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if pingPeriod <= 0 {
		pingPeriod = DefaultPingPeriod
	}
	return &Hub{
		clients:    make(map[string]*Client),
		queueSize:  queueSize,
		pingPeriod: pingPeriod,
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled, then closes every connection so
// their read loops exit.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.logger.Info("Hub shutting down")
	h.closeAllClients()
	close(h.done)
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, client := range h.clients {
		_ = client.conn.Close()
	}
}

// Register adds a connection and starts its write pump.
func (h *Hub) Register(id string, conn Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	client := &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, h.queueSize),
		done: make(chan struct{}),
	}
	h.clients[id] = client
	go h.writePump(client)

	h.logger.Debug("Client registered", "connID", id)
	return client, nil
}

// Unregister removes a connection and waits for its queued frames to be
// written. It is safe to call more than once.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(client.send)
	}
	h.mu.Unlock()

	if ok {
		<-client.done
		h.logger.Debug("Client unregistered", "connID", id)
	}
}

// Send pushes event to one connection.
func (h *Hub) Send(connID string, event chat.Event) {
	h.SendFrame(connID, Frame{Event: event.Name, Data: event.Data})
}

// Broadcast pushes event to every connection.
func (h *Hub) Broadcast(event chat.Event) {
	data, err := json.Marshal(Frame{Event: event.Name, Data: event.Data})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast frame", "event", event.Name, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.enqueue(client, data)
	}
}

// SendFrame encodes frame and queues it for one connection.
func (h *Hub) SendFrame(connID string, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Failed to marshal frame", "event", frame.Event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[connID]; ok {
		h.enqueue(client, data)
	}
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn("Send queue full, dropping frame", "connID", client.ID)
	}
}

// writePump is the only writer of client.conn. It drains the queue and
// pings on a ticker so the reader's pong deadline keeps moving. After a
// failed write the connection is closed and the rest of the queue is
// discarded.
func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		close(client.done)
	}()

	failed := false
	for {
		select {
		case data, ok := <-client.send:
			if !ok {
				return
			}
			if !failed {
				failed = h.write(client, websocket.TextMessage, data) != nil
			}
		case <-ticker.C:
			if !failed {
				failed = h.write(client, websocket.PingMessage, nil) != nil
			}
		}
	}
}

func (h *Hub) write(client *Client, messageType int, data []byte) error {
	_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteMessage(messageType, data); err != nil {
		h.logger.Warn("Failed to write to client", "connID", client.ID, "error", err)
		_ = client.conn.Close()
		return err
	}
	return nil
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
