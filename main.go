package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/realtime-chat/config"
	"github.com/example/realtime-chat/modules/activity"
	"github.com/example/realtime-chat/modules/api"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/example/realtime-chat/modules/chat"
)

func main() {
	log.Println("=== Realtime Chat - Fiber WebSocket + mono EventBus ===")

	cfg := config.Load()

	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if cfg.LogLevel == config.LogLevelError {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	logger := app.Logger()

	// Create modules. The hub is the chat coordinator's transport, and the
	// coordinator drives the api module's websocket sessions; neither is
	// exposed via ServiceContainer, so both are injected here.
	broadcastModule := broadcast.NewModule(cfg.SendQueueSize, cfg.PingPeriod(), logger.WithModule("broadcast"))
	chatModule, err := chat.NewModule(broadcastModule.GetHub(), chat.Options{
		HistoryLimit:     cfg.HistoryLimit,
		PageSize:         cfg.HistoryPageSize,
		TypingTimeout:    cfg.TypingTimeout,
		MaxMessageLength: cfg.MaxMessageLength,
	}, logger.WithModule("chat"))
	if err != nil {
		log.Fatalf("Failed to create chat module: %v", err)
	}
	activityModule := activity.NewModule(activity.DefaultFeedSize, logger.WithModule("activity"))
	apiModule := api.NewModule(api.Options{
		Port:               cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		PongTimeout:        cfg.PongTimeout,
	}, logger.WithModule("api"))

	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetSessions(chatModule.Coordinator())

	// Register modules with the framework.
	// - broadcast: WebSocket hub (transport for chat pushes)
	// - chat: Core domain (ServiceProviderModule + EventEmitterModule)
	// - activity: Event consumer + recent-activity service
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on chat and activity)
	for _, m := range []mono.Module{broadcastModule, chatModule, activityModule, apiModule} {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register %s module: %v", m.Name(), err)
		}
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET    /health                          - Health check")
	log.Println("  GET    /api/v1/users                    - Connected users")
	log.Println("  GET    /api/v1/rooms                    - Occupied rooms")
	log.Println("  GET    /api/v1/rooms/:room/history      - Message history")
	log.Println("  GET    /api/v1/activity                 - Recent activity")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", cfg.Port)
	log.Println(`  Frames: {"event": "<name>", "id": <n>, "data": <payload>}`)
	log.Println("  Commands: login, message:send, room:join, typing:start, typing:stop, getHistory")
	log.Println("  Pushes: message:new, user:list, notification, typing:update")
	log.Println("")
	log.Printf("History: %d messages per room, %d per page; typing timeout %s",
		cfg.HistoryLimit, cfg.HistoryPageSize, cfg.TypingTimeout)
	log.Printf("Keepalive: ping every %s, drop after %s of silence", cfg.PingPeriod(), cfg.PongTimeout)
	log.Printf("Log level: %s (supported: %s, %s)", cfg.LogLevel, config.LogLevelInfo, config.LogLevelError)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
