package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"ruokalista/internal/config"
	"ruokalista/internal/services"
)

const userAgent = "ruokalista/0.1"

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyRenderComplete(ctx context.Context, key, path string, size int64, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		renderComplete: cfg.Notifications.RenderComplete,
		errors:         cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	renderComplete bool
	errors         bool
}

func (n *ntfyService) NotifyRenderComplete(ctx context.Context, key, path string, size int64, duration time.Duration) error {
	if !n.renderComplete {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	message := fmt.Sprintf("🎬 Menu video for %s ready (%s in %s)", strings.TrimSpace(key), humanize.Bytes(uint64(max(size, 0))), duration)
	if path = strings.TrimSpace(path); path != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, path)
	}
	return n.send(ctx, payload{
		title:   "Ruokalista - Video Ready",
		message: message,
		tags:    []string{"ruokalista", "render", "completed"},
	})
}

// NotifyError posts a high-priority alert tagged with services.Kind(err).
func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	message := "❌ Error: " + detail
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		message = fmt.Sprintf("❌ Error with %s: %s", contextLabel, detail)
	}
	return n.send(ctx, payload{
		title:    "Ruokalista - Error",
		message:  message,
		tags:     []string{"ruokalista", "error", services.Kind(err)},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Ruokalista - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"ruokalista", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Noop returns a service that discards every notification.
func Noop() Service { return noopService{} }

type noopService struct{}

func (noopService) NotifyRenderComplete(context.Context, string, string, int64, time.Duration) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
