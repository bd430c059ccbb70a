package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/example/realtime-chat/modules/chat"
)

const (
	msgInternalError  = "Internal server error"
	msgInvalidFrame   = "Invalid message format"
	msgInvalidPayload = "Invalid payload"
	msgRateLimited    = "Rate limit exceeded"
	msgUnknownEvent   = "Unknown event"
)

// handleWebSocket runs one connection. Frames are handled one at a time,
// so a connection's commands are applied in arrival order, and the
// disconnect runs after the last of them. A peer that sends nothing, not
// even a pong to the hub's pings, within PongTimeout is disconnected.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	if _, err := m.hub.Register(connID, c); err != nil {
		m.logger.Warn("Rejected WebSocket connection", "connID", connID, "error", err)
		return
	}
	defer func() {
		m.hub.Unregister(connID)
		m.sessions.Disconnect(connID)
		m.logger.Info("WebSocket client disconnected", "connID", connID)
	}()

	m.logger.Info("WebSocket client connected", "connID", connID)
	c.SetReadLimit(m.opts.MaxFrameSize)
	extendDeadline := func() {
		_ = c.SetReadDeadline(time.Now().Add(m.opts.PongTimeout))
	}
	extendDeadline()
	c.SetPongHandler(func(string) error {
		extendDeadline()
		return nil
	})
	limiter := m.newLimiter()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("WebSocket read error", "connID", connID, "error", err)
			}
			return
		}
		extendDeadline()
		m.dispatch(connID, data, limiter)
	}
}

// dispatch handles one client frame. A panic is confined to the command
// that raised it.
func (m *APIModule) dispatch(connID string, data []byte, limiter *rate.Limiter) {
	var in InboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		m.hub.SendFrame(connID, broadcast.Frame{Event: EventError, Data: ErrorAck{Error: msgInvalidFrame}})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Panic while handling command", "event", in.Event, "connID", connID, "panic", r)
			m.ack(connID, in.ID, ErrorAck{Error: msgInternalError})
		}
	}()

	switch in.Event {
	case CommandLogin:
		var username string
		if err := decodeData(in.Data, &username); err != nil {
			m.ackError(connID, in.ID, chat.NewValidationError("Username must be at least 3 characters"))
			return
		}
		m.reply(connID, in.ID, func() (any, error) { return m.sessions.Login(connID, username) })

	case CommandSendMessage:
		if !limiter.Allow() {
			m.ack(connID, in.ID, ErrorAck{Error: msgRateLimited})
			return
		}
		var payload SendMessagePayload
		if err := decodeData(in.Data, &payload); err != nil {
			m.ackError(connID, in.ID, chat.NewValidationError(msgInvalidPayload))
			return
		}
		m.reply(connID, in.ID, func() (any, error) { return m.sessions.SendMessage(connID, payload.Room, payload.Text) })

	case CommandJoinRoom:
		var room string
		if err := decodeData(in.Data, &room); err != nil {
			m.ackError(connID, in.ID, chat.NewValidationError(msgInvalidPayload))
			return
		}
		m.reply(connID, in.ID, func() (any, error) { return m.sessions.JoinRoom(connID, room) })

	case CommandTypingStart, CommandTypingStop:
		if !limiter.Allow() {
			return
		}
		var room string
		if err := decodeData(in.Data, &room); err != nil {
			m.ackTypingError(connID, in.ID, chat.NewValidationError(msgInvalidPayload))
			return
		}
		var err error
		if in.Event == CommandTypingStart {
			err = m.sessions.TypingStart(connID, room)
		} else {
			err = m.sessions.TypingStop(connID, room)
		}
		m.ackTypingError(connID, in.ID, err)

	case CommandGetHistory:
		var room string
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, &room); err != nil {
				m.ackError(connID, in.ID, chat.NewValidationError(msgInvalidPayload))
				return
			}
		}
		m.reply(connID, in.ID, func() (any, error) { return m.sessions.GetHistory(connID, room) })

	default:
		m.ack(connID, in.ID, ErrorAck{Error: msgUnknownEvent + ": " + in.Event})
	}
}

// reply runs a command and acks its result or error.
func (m *APIModule) reply(connID string, id json.RawMessage, run func() (any, error)) {
	resp, err := run()
	if err != nil {
		m.ackError(connID, id, err)
		return
	}
	m.ack(connID, id, resp)
}

func (m *APIModule) ack(connID string, id json.RawMessage, data any) {
	m.hub.SendFrame(connID, broadcast.Frame{Event: EventAck, ID: id, Data: data})
}

// ackError acks command errors with their client-facing text and hides
// anything else behind a generic message.
func (m *APIModule) ackError(connID string, id json.RawMessage, err error) {
	var cmdErr *chat.Error
	if errors.As(err, &cmdErr) {
		m.ack(connID, id, ErrorAck{Error: cmdErr.Msg})
		return
	}
	m.logger.Error("Command failed", "connID", connID, "error", err)
	m.ack(connID, id, ErrorAck{Error: msgInternalError})
}

// ackTypingError acks a typing command only when it failed and the
// client asked for an ack.
func (m *APIModule) ackTypingError(connID string, id json.RawMessage, err error) {
	if err == nil || len(id) == 0 {
		return
	}
	m.ackError(connID, id, err)
}

// decodeData decodes a required data field.
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, v)
}
