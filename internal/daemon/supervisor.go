package daemon

import (
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// treeConfig holds supervisor restart and shutdown settings.
type treeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func defaultTreeConfig() treeConfig {
	return treeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// newSupervisor builds the root supervisor. Service restarts and panics are
// logged through slog.
func newSupervisor(logger *slog.Logger, cfg treeConfig) *suture.Supervisor {
	handler := &sutureslog.Handler{Logger: logger}
	return suture.New("ruokalista", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	})
}
