package chat

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/realtime-chat/events"
)

// Module owns the chat Coordinator and exposes it to the rest of the app.
type Module struct {
	coordinator *Coordinator
	logger      types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
)

// NewModule creates a chat module whose pushes go through transport.
func NewModule(transport Transport, opts Options, logger types.Logger) (*Module, error) {
	coordinator, err := NewCoordinator(transport, logger, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}
	return &Module{
		coordinator: coordinator,
		logger:      logger,
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.coordinator.SetPublisher(&eventPublisher{bus: bus, logger: m.logger})
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.RoomJoinedV1.ToBase(),
	}
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Chat module started", "defaultRoom", GeneralRoom)
	return nil
}

// Stop cancels pending typing timers.
func (m *Module) Stop(_ context.Context) error {
	m.coordinator.Close()
	m.logger.Info("Chat module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_users": m.coordinator.ConnectedUsers(),
		},
	}
}

// Coordinator returns the protocol coordinator driven by the websocket adapter.
func (m *Module) Coordinator() *Coordinator {
	return m.coordinator
}
