package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ruokalista/internal/api"
	"ruokalista/internal/config"
	"ruokalista/internal/daemonctl"
	"ruokalista/internal/logging"
)

const defaultEnvFile = ".env"

type commandContext struct {
	configFlag   *string
	envFlag      *string
	logLevelFlag *string

	envOnce sync.Once
	envErr  error

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, envFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		envFlag:      envFlag,
		logLevelFlag: logLevelFlag,
	}
}

// loadEnv reads KEY=value pairs into the process environment. Variables
// already set take precedence. A missing default .env is not an error.
func (c *commandContext) loadEnv() error {
	c.envOnce.Do(func() {
		path := defaultEnvFile
		explicit := false
		if c.envFlag != nil && strings.TrimSpace(*c.envFlag) != "" {
			path = strings.TrimSpace(*c.envFlag)
			explicit = true
		}
		if err := godotenv.Load(path); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				return
			}
			c.envErr = fmt.Errorf("load env file %s: %w", path, err)
		}
	})
	return c.envErr
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// logger builds a stderr logger for one-shot commands so stdout stays
// reserved for command output.
func (c *commandContext) logger() (*slog.Logger, error) {
	cfg := c.configValue()
	level := c.logLevel()
	format := "console"
	var loc *time.Location
	if cfg != nil {
		loc = cfg.Location()
		if level == "" {
			level = cfg.Logging.Level
		}
		format = cfg.Logging.Format
	}
	if level == "" {
		level = "warn"
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      format,
		OutputPaths: []string{"stderr"},
		Location:    loc,
	})
}

// withRuntime opens the caches and workflow for a one-shot command. Commands
// that write shared state refuse to run next to a live daemon.
func (c *commandContext) withRuntime(exclusive bool, fn func(*api.Runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if exclusive {
		running, pid, err := daemonctl.ProcessInfo(cfg)
		if err != nil {
			return err
		}
		if running {
			return fmt.Errorf("daemon is running (pid %d); stop it with `ruokalista stop` or use its HTTP endpoints", pid)
		}
	}
	logger, err := c.logger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt, err := api.OpenRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
