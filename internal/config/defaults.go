package config

const (
	defaultSourceURL            = "https://www.mayk.fi/tietoa-meista/ruokailu/"
	defaultSourceTimeoutSeconds = 30
	defaultUserAgent            = "ruokalista/0.1"
	defaultOutputDir            = "~/.local/share/ruokalista"
	defaultLogDir               = "~/.local/share/ruokalista/logs"
	defaultBind                 = ":8080"
	defaultVideoRateLimit       = 30
	defaultStorageBackend       = "file"
	defaultRenderCommand        = "npx"
	defaultComposition          = "Food"
	defaultRenderTimeoutSeconds = 600
	defaultCron                 = "0 7 * * *"
	defaultTimezone             = "Europe/Helsinki"
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

var defaultRenderArgs = []string{
	"remotion", "render", "src/index.tsx", "{composition}", "{output}",
	"--props={props}", "--frames-dir={frames}",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Source: Source{
			URL:            defaultSourceURL,
			TimeoutSeconds: defaultSourceTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Server: Server{
			Bind:           defaultBind,
			VideoRateLimit: defaultVideoRateLimit,
		},
		Storage: Storage{
			Backend: defaultStorageBackend,
		},
		Render: Render{
			Command:        defaultRenderCommand,
			Args:           append([]string(nil), defaultRenderArgs...),
			Composition:    defaultComposition,
			TimeoutSeconds: defaultRenderTimeoutSeconds,
		},
		Scheduler: Scheduler{
			Enabled:  true,
			Cron:     defaultCron,
			Timezone: defaultTimezone,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RenderComplete: false,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
