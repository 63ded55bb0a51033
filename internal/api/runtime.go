package api

import (
	"errors"
	"fmt"
	"log/slog"

	"ruokalista/internal/artifacts"
	"ruokalista/internal/config"
	"ruokalista/internal/datacache"
	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
	"ruokalista/internal/menustore"
	"ruokalista/internal/notifications"
	"ruokalista/internal/render"
	"ruokalista/internal/scraper"
	"ruokalista/internal/workflow"
)

// Runtime is the wired set of caches, renderer and workflow manager shared
// by the daemon and the one-shot CLI commands.
type Runtime struct {
	Config    *config.Config
	Clock     menu.Clock
	Store     menustore.Store
	Fetcher   datacache.Fetcher
	Data      *datacache.Cache
	Artifacts *artifacts.Cache
	Engine    render.Engine
	Manager   *workflow.Manager
}

// RuntimeOption customizes OpenRuntime.
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	clock    menu.Clock
	fetcher  datacache.Fetcher
	engine   render.Engine
	store    menustore.Store
	notifier notifications.Service
}

// WithClock overrides the wall clock.
func WithClock(clock menu.Clock) RuntimeOption {
	return func(o *runtimeOptions) { o.clock = clock }
}

// WithFetcher overrides the HTTP scraper.
func WithFetcher(fetcher datacache.Fetcher) RuntimeOption {
	return func(o *runtimeOptions) { o.fetcher = fetcher }
}

// WithEngine overrides the external rendering command.
func WithEngine(engine render.Engine) RuntimeOption {
	return func(o *runtimeOptions) { o.engine = engine }
}

// WithStore uses an already open store. The runtime takes ownership of it.
func WithStore(store menustore.Store) RuntimeOption {
	return func(o *runtimeOptions) { o.store = store }
}

// WithNotifier overrides the notification service built from config.
func WithNotifier(notifier notifications.Service) RuntimeOption {
	return func(o *runtimeOptions) { o.notifier = notifier }
}

// OpenRuntime wires every component from cfg. Callers must Close the runtime.
func OpenRuntime(cfg *config.Config, logger *slog.Logger, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o runtimeOptions
	for _, opt := range opts {
		opt(&o)
	}

	clock := o.clock
	if clock == nil {
		clock = menu.NewClock(cfg.Location())
	}
	store := o.store
	if store == nil {
		var err error
		store, err = menustore.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open menu store: %w", err)
		}
	}
	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = scraper.New(cfg, logger, scraper.WithClock(clock))
	}
	engine := o.engine
	if engine == nil {
		engine = render.NewCommandEngine(cfg, logger)
	}
	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	data := datacache.New(store, fetcher, clock, logger)
	arts := artifacts.New(cfg.Paths.OutputDir, clock, logger)
	renderer := render.NewRenderer(engine, arts, clock, cfg.Render.Composition, cfg.RenderTimeout(), logger)
	manager := workflow.NewManager(workflow.Deps{
		Data:      data,
		Artifacts: arts,
		Renderer:  renderer,
		Clock:     clock,
		Notifier:  notifier,
	}, logger)

	return &Runtime{
		Config:    cfg,
		Clock:     clock,
		Store:     store,
		Fetcher:   fetcher,
		Data:      data,
		Artifacts: arts,
		Engine:    engine,
		Manager:   manager,
	}, nil
}

// BreakerState reports the fetcher's circuit breaker state, or "n/a" when
// the fetcher has none.
func (r *Runtime) BreakerState() string {
	if b, ok := r.Fetcher.(interface{ BreakerState() string }); ok {
		return b.BreakerState()
	}
	return "n/a"
}

// Close waits for background refreshes and closes the store.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	if r.Manager != nil {
		r.Manager.Wait()
	}
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}
