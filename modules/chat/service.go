package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RegisterServices registers the read-side request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListUsers,
		json.Unmarshal,
		json.Marshal,
		m.handleListUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListUsers, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListRooms,
		json.Unmarshal,
		json.Marshal,
		m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetHistory,
		json.Unmarshal,
		json.Marshal,
		m.handleGetHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetHistory, err)
	}

	m.logger.Info("Registered chat services", "services", []string{ServiceListUsers, ServiceListRooms, ServiceGetHistory})
	return nil
}

func (m *Module) handleListUsers(_ context.Context, _ ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	return ListUsersResponse{Users: m.coordinator.Users()}, nil
}

func (m *Module) handleListRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.coordinator.Rooms()}, nil
}

// handleGetHistory reports lookup failures in the response body so the
// caller can tell a bad room from a transport failure.
func (m *Module) handleGetHistory(_ context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	messages, err := m.coordinator.History(req.Room, req.Limit)
	if err != nil {
		kind := KindName(err)
		if kind == "" {
			return GetHistoryResponse{}, err
		}
		return GetHistoryResponse{Room: req.Room, Kind: kind, Error: err.Error()}, nil
	}
	return GetHistoryResponse{Room: req.Room, Messages: messages}, nil
}
