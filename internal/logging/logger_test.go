package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ruokalista/internal/config"
	"ruokalista/internal/logging"
	"ruokalista/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "ruokalista.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "renderer").Info("message without caller",
		logging.String(logging.FieldDayKey, "20261019"),
		logging.String("path", "/tmp/menu.mp4"),
		logging.String(logging.FieldEventType, "render_complete"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
	if !strings.Contains(text, "[renderer] day 20261019") {
		t.Fatalf("expected component and day key in header, got %q", text)
	}
	if !strings.Contains(text, "- path: /tmp/menu.mp4") {
		t.Fatalf("expected path field, got %q", text)
	}
	if strings.Contains(text, "render_complete") {
		t.Fatalf("expected event_type to be hidden from console info output, got %q", text)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerUsesStableKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRequestID(context.Background(), "req-1")
	logging.WithContext(ctx, logger).Warn("fetch failed", logging.Error(errors.New("boom")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg", "error", logging.FieldCorrelationID} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected key %q in %v", key, payload)
		}
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "stale entries found", "stale_sweep")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"event_type":"stale_sweep"`, `"error_hint"`, `"impact"`} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in %s", want, content)
		}
	}
}

func TestErrorWithContextAddsKindAndHint(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	fetchErr := services.Wrap(services.ErrFetch, "scraper", "fetch", "unexpected status 503", nil)
	logging.ErrorWithContext(logger, "fetch failed", "fetch_failed", logging.Error(fetchErr))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldErrorKind] != "fetch" {
		t.Fatalf("expected error_kind fetch, got %v", payload[logging.FieldErrorKind])
	}
	hint, _ := payload[logging.FieldErrorHint].(string)
	if !strings.Contains(hint, "source.url") {
		t.Fatalf("expected fetch hint, got %q", hint)
	}
}

func TestConsoleTimestampUsesLocation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tz.log")
	loc := time.FixedZone("UTC+3", 3*60*60)
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}, Location: loc})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	record := slog.NewRecord(time.Date(2026, 10, 18, 21, 30, 0, 0, time.UTC), slog.LevelInfo, "late", 0)
	if err := logger.Handler().Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.HasPrefix(string(content), "2026-10-19 00:30:00 INFO") {
		t.Fatalf("expected timestamp in configured zone, got %q", content)
	}
}

func TestNewFansOutToEverySink(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.log")
	second := filepath.Join(dir, "nested", "b.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{first, second, first},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("dropped by level")
	logging.NewComponentLogger(logger, "scraper").With(logging.String(logging.FieldDayKey, "20261019")).Warn("source slow")

	for _, path := range []string{first, second} {
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		got := string(content)
		if strings.Contains(got, "dropped by level") {
			t.Fatalf("%s: info record should be filtered, got %q", path, got)
		}
		if strings.Count(got, "source slow") != 1 {
			t.Fatalf("%s: expected one warn record, got %q", path, got)
		}
		if !strings.Contains(got, "WARN [scraper] day 20261019") || strings.Contains(got, "\x1b[") {
			t.Fatalf("%s: expected plain header with component and day, got %q", path, got)
		}
	}
}
