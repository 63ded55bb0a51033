package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"ruokalista/internal/api"
	"ruokalista/internal/config"
	"ruokalista/internal/daemon"
	"ruokalista/internal/daemonctl"
	"ruokalista/internal/logging"
	"ruokalista/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// RuntimeOptions are passed to api.OpenRuntime.
	RuntimeOptions []api.RuntimeOption
	// Ready, when set, receives the bound address once the daemon is serving.
	Ready func(addr string)
}

// Run starts the ruokalista daemon and blocks until SIGINT/SIGTERM or ctx
// cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
		Development: opts.Development,
		Location:    cfg.Location(),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	rt, err := api.OpenRuntime(cfg, logger, opts.RuntimeOptions...)
	if err != nil {
		logger.Error("open runtime", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, rt, logger)
	if err != nil {
		_ = rt.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	// The pid file is only ours once the instance lock is held.
	pidPath := daemonctl.PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)
	if opts.Ready != nil {
		opts.Ready(d.Addr())
	}

	select {
	case <-signalCtx.Done():
	case err := <-d.Done():
		if err != nil && signalCtx.Err() == nil {
			logger.Error("supervisor exited", logging.Error(err))
		}
	}
	logger.Info("ruokalista daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("source_url", cfg.Source.URL),
		logging.String("storage", cfg.Storage.Backend),
		logging.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		logging.String("cron", cfg.Scheduler.Cron),
		logging.String("timezone", cfg.Location().String()),
	}
	for _, st := range preflight.CheckSystemDeps(cfg) {
		attrs = append(attrs, logging.Bool(st.Name+"_available", st.Available))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
