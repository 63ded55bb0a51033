package scheduler

import (
	"context"
	"time"
)

// Service adapts a Scheduler to the supervisor's Serve lifecycle.
type Service struct {
	scheduler *Scheduler
	grace     time.Duration
}

// NewService wraps s. grace bounds how long shutdown waits for a running cycle.
func NewService(s *Scheduler, grace time.Duration) *Service {
	if grace <= 0 {
		grace = 30 * time.Second
	}
	return &Service{scheduler: s, grace: grace}
}

// Serve starts the scheduler and blocks until ctx is cancelled.
func (svc *Service) Serve(ctx context.Context) error {
	if err := svc.scheduler.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	svc.scheduler.Stop(svc.grace)
	return ctx.Err()
}

func (svc *Service) String() string { return "scheduler" }
