package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/example/realtime-chat/modules/chat"
)

const (
	maxHistoryLimit  = 100
	maxActivityLimit = 100
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := app.Group("/api/v1")
	api.Get("/users", m.listUsers)
	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:room/history", m.getHistory)
	api.Get("/activity", m.getActivity)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
			"connected_users":   m.sessions.ConnectedUsers(),
		},
	})
}

// listUsers handles GET /api/v1/users.
func (m *APIModule) listUsers(c *fiber.Ctx) error {
	users, err := m.chatAdapter.ListUsers(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list users", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list users",
		})
	}
	return c.JSON(UserListResponse{Users: users})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.chatAdapter.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	return c.JSON(RoomListResponse{Rooms: rooms})
}

// getHistory handles GET /api/v1/rooms/:room/history.
func (m *APIModule) getHistory(c *fiber.Ctx) error {
	room := c.Params("room")
	limit := queryLimit(c, chat.DefaultPageSize, maxHistoryLimit)

	messages, err := m.chatAdapter.GetHistory(c.UserContext(), room, limit)
	switch {
	case err == nil:
		return c.JSON(HistoryResponse{Room: room, Messages: messages})
	case errors.Is(err, chat.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, chat.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	}
	m.logger.Error("Failed to get history", "room", room, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "history_failed",
		Message: "Failed to get history",
	})
}

// getActivity handles GET /api/v1/activity.
func (m *APIModule) getActivity(c *fiber.Ctx) error {
	limit := queryLimit(c, 20, maxActivityLimit)

	resp, err := m.activityAdapter.RecentActivity(c.UserContext(), limit)
	if err != nil {
		m.logger.Error("Failed to get activity", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "activity_failed",
			Message: "Failed to get activity",
		})
	}
	return c.JSON(ActivityResponse{Counters: resp.Counters, Entries: resp.Entries})
}

// queryLimit parses ?limit=, ignoring values outside 1..upper.
func queryLimit(c *fiber.Ctx, fallback, upper int) int {
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= upper {
			return parsed
		}
	}
	return fallback
}
