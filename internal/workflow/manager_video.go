package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ruokalista/internal/artifacts"
	"ruokalista/internal/logging"
	"ruokalista/internal/metrics"
	"ruokalista/internal/render"
	"ruokalista/internal/services"
)

// Video is an open artifact ready to stream. Callers must Close it.
type Video struct {
	Artifact artifacts.Artifact
	File     *os.File
	// Reused is set when the artifact existed before this request.
	Reused bool
}

// Close releases the underlying file.
func (v *Video) Close() error {
	if v == nil || v.File == nil {
		return nil
	}
	return v.File.Close()
}

// Video returns today's artifact. When a render is already running it serves
// today's cached artifact if one exists and otherwise returns
// services.ErrRenderBusy without waiting. The render itself runs detached from
// ctx so a dropped client does not abort work other callers will reuse.
func (m *Manager) Video(ctx context.Context) (*Video, error) {
	logger := logging.WithContext(ctx, m.logger)

	if !m.guard.TryEnter() {
		metrics.RecordRender("busy", 0)
		if art, ok, err := m.artifacts.Current(); err == nil && ok {
			logger.Info("render in progress, serving cached artifact",
				logging.DayKey(art.Key),
				logging.String(logging.FieldEventType, "render_skipped"),
			)
			return m.open(art, true)
		}
		logger.Info("render in progress, skipping request",
			logging.String(logging.FieldEventType, "render_skipped"),
		)
		return nil, services.Wrap(services.ErrRenderBusy, "workflow", "video", "render already in progress", nil)
	}
	defer m.guard.Exit()

	snap, err := m.data.GetToday(ctx)
	if err != nil {
		return nil, err
	}

	var opts []render.Option
	force := m.needsFreshRender(snap)
	if force {
		opts = append(opts, render.Force())
	}
	_, existed, _ := m.artifacts.Current()
	art, err := m.renderer.Render(context.WithoutCancel(ctx), snap.Record, opts...)
	if err != nil {
		return nil, err
	}
	m.noteRender(snap, art.Key, force || !existed)
	return m.open(art, existed && !force)
}

func (m *Manager) open(art artifacts.Artifact, reused bool) (*Video, error) {
	f, err := os.Open(art.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrRender, "workflow", "open artifact", "artifact disappeared", err)
		}
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return &Video{Artifact: art, File: f, Reused: reused}, nil
}
