package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/realtime-chat/domain/chat"
)

// ChatPort defines the read-side chat operations available to other modules.
type ChatPort interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetHistory(ctx context.Context, room string, limit int) ([]domain.Message, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// ListUsers returns the connected users.
func (a *ChatAdapter) ListUsers(ctx context.Context) ([]domain.User, error) {
	req := ListUsersRequest{}
	var resp ListUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return resp.Users, nil
}

// ListRooms returns the occupied broadcast rooms.
func (a *ChatAdapter) ListRooms(ctx context.Context) ([]domain.Room, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// GetHistory returns up to limit recent messages of a broadcast room.
// Lookup failures come back as *Error.
func (a *ChatAdapter) GetHistory(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	req := GetHistoryRequest{Room: room, Limit: limit}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromKind(resp.Kind, resp.Error)
	}
	return resp.Messages, nil
}
