package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ruokalista/internal/config"
	"ruokalista/internal/notifications"
	"ruokalista/internal/services"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), seen...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "daily cycle"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, seen := newServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.RenderComplete = true
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyRenderComplete(ctx, "20261018", "/srv/menu-20261018.mp4", 2_500_000, 42*time.Second); err != nil {
		t.Fatalf("NotifyRenderComplete: %v", err)
	}
	renderErr := services.Wrap(services.ErrRender, "renderer", "engine", "", errors.New("exit status 1"))
	if err := svc.NotifyError(ctx, renderErr, "daily cycle"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}

	got := seen()
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].title != "Ruokalista - Video Ready" || !strings.Contains(got[0].body, "20261018") || !strings.Contains(got[0].body, "2.5 MB") {
		t.Fatalf("unexpected render notification %+v", got[0])
	}
	if got[1].priority != "high" || got[1].body != "❌ Error with daily cycle: render failed: renderer: engine: exit status 1" {
		t.Fatalf("unexpected error notification %+v", got[1])
	}
	if got[1].tags != "ruokalista,error,render" {
		t.Fatalf("unexpected tags %q", got[1].tags)
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	srv, seen := newServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.RenderComplete = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	_ = svc.NotifyRenderComplete(context.Background(), "20261018", "", 1, time.Second)
	_ = svc.NotifyError(context.Background(), errors.New("x"), "")
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if got := seen(); len(got) != 1 || got[0].title != "Ruokalista - Test" {
		t.Fatalf("expected only the test notification, got %+v", got)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
