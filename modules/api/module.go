package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/time/rate"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/modules/activity"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/example/realtime-chat/modules/chat"
)

// Sessions is the command surface the websocket adapter drives.
type Sessions interface {
	Login(connID, username string) (*chat.LoginResult, error)
	SendMessage(connID, room, text string) (*chat.SendResult, error)
	JoinRoom(connID, room string) (*chat.JoinResult, error)
	TypingStart(connID, room string) error
	TypingStop(connID, room string) error
	GetHistory(connID, room string) ([]domain.Message, error)
	Disconnect(connID string) bool
	ConnectedUsers() int
}

// Options configures the HTTP server and per-connection limits.
type Options struct {
	Port               string
	CORSAllowedOrigins string
	RateLimitPerSecond float64
	RateLimitBurst     int
	MaxFrameSize       int64
	// PongTimeout bounds how long a connection may stay silent, pongs
	// included, before it is dropped.
	PongTimeout time.Duration
}

// DefaultPongTimeout is the read deadline applied to every connection.
const DefaultPongTimeout = 60 * time.Second

// APIModule is the HTTP API module with WebSocket support.
type APIModule struct {
	app             *fiber.App
	chatAdapter     chat.ChatPort
	activityAdapter activity.ActivityPort
	sessions        Sessions
	hub             *broadcast.Hub
	opts            Options
	logger          types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(opts Options, logger types.Logger) *APIModule {
	if opts.Port == "" {
		opts.Port = "3000"
	}
	if opts.CORSAllowedOrigins == "" {
		opts.CORSAllowedOrigins = "*"
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 20
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = 64 * 1024
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = DefaultPongTimeout
	}
	return &APIModule{
		opts:   opts,
		logger: logger,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"chat", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "chat":
		m.chatAdapter = chat.NewChatAdapter(container)
	case "activity":
		m.activityAdapter = activity.NewActivityAdapter(container)
	}
}

// SetHub sets the broadcast hub (called from main.go).
func (m *APIModule) SetHub(hub *broadcast.Hub) {
	m.hub = hub
}

// SetSessions sets the chat command handler (called from main.go).
func (m *APIModule) SetSessions(sessions Sessions) {
	m.sessions = sessions
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.chatAdapter == nil {
		return fmt.Errorf("chat adapter dependency not set")
	}
	if m.activityAdapter == nil {
		return fmt.Errorf("activity adapter dependency not set")
	}
	if m.hub == nil {
		return fmt.Errorf("broadcast hub dependency not set")
	}
	if m.sessions == nil {
		return fmt.Errorf("chat sessions dependency not set")
	}

	m.app = m.newApp()

	go func() {
		if err := m.app.Listen(":" + m.opts.Port); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "port", m.opts.Port)
	return nil
}

// newApp builds the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		UnescapePath:          true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.opts.CORSAllowedOrigins,
		AllowMethods: "GET,OPTIONS",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[api] ${method} ${path} ${status} ${latency}\n",
		Next:   websocket.IsWebSocketUpgrade,
	}))

	m.setupRoutes(app)
	return app
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.Shutdown()
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{"port": m.opts.Port}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// newLimiter returns the per-connection limiter for chatty commands.
func (m *APIModule) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(m.opts.RateLimitPerSecond), m.opts.RateLimitBurst)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
