package api

import (
	"context"

	"ruokalista/internal/datacache"
	"ruokalista/internal/services"
	"ruokalista/internal/workflow"
)

// FetchMenuRequest drives the one-shot fetch command.
type FetchMenuRequest struct {
	Runtime *Runtime
	// Force bypasses the cached entry for today.
	Force bool
}

// FetchMenu returns today's record, fetching only when needed unless Force is set.
func FetchMenu(ctx context.Context, req FetchMenuRequest) (datacache.Snapshot, error) {
	ctx = services.WithTrigger(ctx, services.TriggerCLI)
	if req.Force {
		snap, _, err := req.Runtime.Data.Refresh(ctx)
		return snap, err
	}
	return req.Runtime.Data.GetToday(ctx)
}

// RenderTodayRequest drives the one-shot render command.
type RenderTodayRequest struct {
	Runtime *Runtime
	Force   bool
}

// RenderToday renders today's artifact unless one already exists.
func RenderToday(ctx context.Context, req RenderTodayRequest) (workflow.Video, error) {
	ctx = services.WithTrigger(ctx, services.TriggerCLI)
	return req.Runtime.Manager.RenderNow(ctx, req.Force)
}
