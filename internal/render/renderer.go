package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ruokalista/internal/artifacts"
	"ruokalista/internal/fileutil"
	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
	"ruokalista/internal/metrics"
	"ruokalista/internal/services"
)

// Props is the structured input handed to the rendering engine.
type Props struct {
	Key         string       `json:"key"`
	Slot        int          `json:"slot"`
	GeneratedAt time.Time    `json:"generated_at"`
	Days        []menu.Day   `json:"days"`
	Today       *menu.Day    `json:"today"`
	Food        menu.Columns `json:"food"`
	TitleColor  string       `json:"titleColor"`
}

// Option adjusts a single Render call.
type Option func(*renderOptions)

type renderOptions struct {
	force bool
}

// Force re-renders even when today's artifact already exists.
func Force() Option {
	return func(o *renderOptions) { o.force = true }
}

// Renderer produces the artifact for the live day key. Callers must hold the
// Guard while calling Render.
type Renderer struct {
	engine      Engine
	cache       *artifacts.Cache
	clock       menu.Clock
	composition string
	timeout     time.Duration
	logger      *slog.Logger
}

// NewRenderer wires a renderer.
func NewRenderer(engine Engine, cache *artifacts.Cache, clock menu.Clock, composition string, timeout time.Duration, logger *slog.Logger) *Renderer {
	return &Renderer{
		engine:      engine,
		cache:       cache,
		clock:       clock,
		composition: composition,
		timeout:     timeout,
		logger:      logging.NewComponentLogger(logger, "renderer"),
	}
}

// Render returns today's artifact, invoking the engine only when none exists
// or Force is given. On success every intermediate file and every artifact
// for another day is removed. On failure only intermediates are removed.
func (r *Renderer) Render(ctx context.Context, rec menu.Record, opts ...Option) (artifacts.Artifact, error) {
	var o renderOptions
	for _, opt := range opts {
		opt(&o)
	}

	now := r.clock.Now()
	key := menu.KeyAt(now)
	logger := logging.WithContext(ctx, r.logger).With(logging.DayKey(key))

	if !o.force {
		existing, ok, err := r.cache.Lookup(key)
		if err != nil {
			logger.Warn("artifact lookup failed", logging.Error(err))
		} else if ok {
			metrics.RecordRender("cached", 0)
			logger.Debug("reusing cached artifact", logging.String("path", existing.Path))
			return existing, nil
		}
	}

	jobID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldJobID, jobID))

	if err := r.cache.PrepareFrames(); err != nil {
		return artifacts.Artifact{}, r.fail(logger, "prepare", err, 0)
	}
	propsPath := r.cache.PropsPath(key)
	if err := r.writeProps(propsPath, key, now, rec); err != nil {
		return artifacts.Artifact{}, r.fail(logger, "props", err, 0)
	}

	renderCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logger.Info("render started",
		logging.String("composition", r.composition),
		logging.Bool("forced", o.force),
		logging.String(logging.FieldEventType, "render_start"),
	)
	start := time.Now()
	output, err := r.engine.Render(renderCtx, Job{
		ID:          jobID,
		Key:         key.String(),
		Composition: r.composition,
		PropsPath:   propsPath,
		FramesDir:   r.cache.FramesDir(),
		OutputPath:  r.cache.StagingPath(),
	})
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(renderCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", services.ErrTimeout, r.timeout, err)
		}
		return artifacts.Artifact{}, r.fail(logger, "engine", err, elapsed)
	}

	artifact, err := r.cache.Commit(key, output)
	if err != nil {
		return artifacts.Artifact{}, r.fail(logger, "commit", err, elapsed)
	}

	if err := r.cache.CleanIntermediate(); err != nil {
		logger.Warn("intermediate cleanup incomplete", logging.Error(err))
	}
	if _, err := r.cache.PruneStale(key); err != nil {
		logger.Warn("stale artifact cleanup incomplete", logging.Error(err))
	}

	metrics.RecordRender("ok", elapsed)
	logger.Info("render complete",
		logging.String("path", artifact.Path),
		logging.Int64("size_bytes", artifact.Size),
		logging.Duration("duration", elapsed),
		logging.String(logging.FieldEventType, "render_complete"),
	)
	return artifact, nil
}

func (r *Renderer) fail(logger *slog.Logger, op string, err error, elapsed time.Duration) error {
	if cleanErr := r.cache.CleanIntermediate(); cleanErr != nil {
		logger.Warn("intermediate cleanup after failure incomplete", logging.Error(cleanErr))
	}
	wrapped := services.Wrap(services.ErrRender, "renderer", op, "", err)
	metrics.RecordRender(services.Kind(wrapped), elapsed)
	logging.ErrorWithContext(logger, "render failed", "render_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the render command and its output in debug logs"),
	)
	return wrapped
}

func (r *Renderer) writeProps(path string, key menu.DayKey, now time.Time, rec menu.Record) error {
	slot := menu.TodaySlot(now)
	props := Props{
		Key:         key.String(),
		Slot:        slot,
		GeneratedAt: now,
		Days:        rec.Days,
		Food:        rec.Columns(),
		TitleColor:  "white",
	}
	if props.Days == nil {
		props.Days = []menu.Day{}
	}
	if day, ok := rec.Today(slot); ok {
		props.Today = &day
	}
	data, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return fmt.Errorf("encode props: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
