package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ruokalista/internal/services"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Time(key string, value time.Time) Attr { return slog.Time(key, value) }

// DayKey tags a record with the calendar day it concerns. The console
// handler prints it in the header line.
func DayKey(key fmt.Stringer) Attr { return slog.String(FieldDayKey, key.String()) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// eventHints maps event types to the first thing an operator should check.
var eventHints = map[string]string{
	"fetch_failed":          "check source.url is reachable and still lists .ruoka-template-header elements",
	"menu_unavailable":      "no menu has ever been cached; the source must answer once before /api can serve",
	"stale_served":          "the source is down; the newest cached week is being served",
	"stale_sweep_failed":    "old day entries remain in the store; run `ruokalista cache clean`",
	"render_failed":         "run `ruokalista render --log-level debug` to see the engine output",
	"startup_render_failed": "the first /video request will retry the render",
	"daily_cycle_failed":    "the next scheduled run retries; see the error for the failing step",
	"store_read_failed":     "check permissions and free space under paths.output_dir",
	"store_write_failed":    "check permissions and free space under paths.output_dir",
}

// eventImpacts maps warning event types to their user-visible consequence.
var eventImpacts = map[string]string{
	"fetch_failed":       "clients receive cached data or 500 until the source recovers",
	"stale_served":       "clients see an older week's menu",
	"stale_sweep_failed": "disk usage grows by one entry per day",
	"store_read_failed":  "the menu is fetched again instead of read from disk",
	"store_write_failed": "the menu is only cached in memory until restart",
}

func hasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// withEventFields fills in event_type, error_hint and, when an error attribute
// is present, error_kind.
func withEventFields(eventType string, attrs []Attr) []Attr {
	if !hasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !hasAttrKey(attrs, FieldErrorHint) {
		hint, ok := eventHints[eventType]
		if !ok {
			hint = "check logs for details"
		}
		attrs = append(attrs, String(FieldErrorHint, hint))
	}
	if !hasAttrKey(attrs, FieldErrorKind) {
		for _, a := range attrs {
			if a.Key != "error" {
				continue
			}
			if err, ok := a.Value.Any().(error); ok && !errors.Is(err, context.Canceled) {
				attrs = append(attrs, String(FieldErrorKind, services.Kind(err)))
			}
			break
		}
	}
	return attrs
}

// WarnWithContext logs a warning with enforced event_type, error_hint, and impact fields.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withEventFields(eventType, attrs)
	if !hasAttrKey(attrs, FieldImpact) {
		impact, ok := eventImpacts[eventType]
		if !ok {
			impact = "operation completed with warnings"
		}
		attrs = append(attrs, String(FieldImpact, impact))
	}
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error with enforced event_type and error_hint fields.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, Args(withEventFields(eventType, attrs)...)...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
