package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort defines the interface for reading chat activity.
type ActivityPort interface {
	RecentActivity(ctx context.Context, limit int) (*RecentActivityResponse, error)
}

// ActivityAdapter implements ActivityPort using the service container.
type ActivityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates a new ActivityAdapter.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	if container == nil {
		panic("activity: ServiceContainer is nil")
	}
	return &ActivityAdapter{container: container}
}

// RecentActivity returns the counters and up to limit feed entries.
func (a *ActivityAdapter) RecentActivity(ctx context.Context, limit int) (*RecentActivityResponse, error) {
	req := RecentActivityRequest{Limit: limit}
	var resp RecentActivityResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRecentActivity,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}
	return &resp, nil
}
