package testsupport

import (
	"testing"
	"time"

	"ruokalista/internal/artifacts"
	"ruokalista/internal/config"
	"ruokalista/internal/datacache"
	"ruokalista/internal/menu"
	"ruokalista/internal/render"
	"ruokalista/internal/workflow"
)

// Harness wires a workflow manager around fakes.
type Harness struct {
	Config    *config.Config
	Clock     *menu.FixedClock
	Fetcher   *FakeFetcher
	Engine    *FakeEngine
	Data      *datacache.Cache
	Artifacts *artifacts.Cache
	Guard     *render.Guard
	Manager   *workflow.Manager
}

// Monday is the default harness time: Monday 12 October 2026, 09:00 UTC.
var Monday = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

// NewHarness builds a manager backed by a fake fetcher returning five days
// and a fake engine.
func NewHarness(t testing.TB, opts ...ConfigOption) *Harness {
	t.Helper()
	cfg := NewConfig(t, opts...)
	clock := menu.NewFixedClock(Monday)
	fetcher := NewFakeFetcher(Record(5))
	engine := NewFakeEngine()
	store := MustOpenStore(t, cfg)

	data := datacache.New(store, fetcher, clock, nil)
	arts := artifacts.New(cfg.Paths.OutputDir, clock, nil)
	guard := &render.Guard{}
	renderer := render.NewRenderer(engine, arts, clock, cfg.Render.Composition, cfg.RenderTimeout(), nil)
	manager := workflow.NewManager(workflow.Deps{
		Data:      data,
		Artifacts: arts,
		Renderer:  renderer,
		Guard:     guard,
		Clock:     clock,
	}, nil)
	t.Cleanup(manager.Wait)

	return &Harness{
		Config:    cfg,
		Clock:     clock,
		Fetcher:   fetcher,
		Engine:    engine,
		Data:      data,
		Artifacts: arts,
		Guard:     guard,
		Manager:   manager,
	}
}
