package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	c.normalizeSource()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeStorage()
	if err := c.normalizeRender(); err != nil {
		return err
	}
	if err := c.normalizeScheduler(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSource() {
	if value, ok := lookupEnv("RUOKALISTA_SOURCE_URL"); ok {
		c.Source.URL = value
	}
	c.Source.URL = strings.TrimSpace(c.Source.URL)
	if c.Source.URL == "" {
		c.Source.URL = defaultSourceURL
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = defaultSourceTimeoutSeconds
	}
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizePaths() error {
	if value, ok := lookupEnv("RUOKALISTA_OUTPUT_DIR"); ok {
		c.Paths.OutputDir = value
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	// PORT mirrors the variable the hosting platforms set.
	if value, ok := lookupEnv("PORT"); ok {
		if strings.Contains(value, ":") {
			c.Server.Bind = value
		} else {
			c.Server.Bind = ":" + value
		}
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.Server.VideoRateLimit < 0 {
		c.Server.VideoRateLimit = 0
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
}

func (c *Config) normalizeRender() error {
	c.Render.Command = strings.TrimSpace(c.Render.Command)
	if c.Render.Command == "" {
		c.Render.Command = defaultRenderCommand
		if len(c.Render.Args) == 0 {
			c.Render.Args = append([]string(nil), defaultRenderArgs...)
		}
	}
	c.Render.Composition = strings.TrimSpace(c.Render.Composition)
	if c.Render.Composition == "" {
		c.Render.Composition = defaultComposition
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = defaultRenderTimeoutSeconds
	}
	if strings.TrimSpace(c.Render.WorkDir) != "" {
		var err error
		if c.Render.WorkDir, err = expandPath(strings.TrimSpace(c.Render.WorkDir)); err != nil {
			return fmt.Errorf("render.work_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeScheduler() error {
	if value, ok := lookupEnv("RUOKALISTA_CRON"); ok {
		c.Scheduler.Cron = value
	}
	c.Scheduler.Cron = strings.TrimSpace(c.Scheduler.Cron)
	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = defaultCron
	}

	if value, ok := lookupEnv("RUOKALISTA_TIMEZONE"); ok {
		c.Scheduler.Timezone = value
	} else {
		continent, okContinent := lookupEnv("TZ_CONTINENT")
		city, okCity := lookupEnv("TZ_CITY")
		if okContinent && okCity {
			c.Scheduler.Timezone = continent + "/" + city
		}
	}
	c.Scheduler.Timezone = strings.TrimSpace(c.Scheduler.Timezone)
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	c.location = loc
	return nil
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := lookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
