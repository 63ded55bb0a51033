package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ruokalista/internal/api"
	"ruokalista/internal/config"
	"ruokalista/internal/daemon"
	"ruokalista/internal/menu"
	"ruokalista/internal/testsupport"
)

type env struct {
	cfg    *config.Config
	engine *testsupport.FakeEngine
	daemon *daemon.Daemon
	base   string
	hits   *atomic.Int32
}

// startDaemon serves page from a fake source site (or 500 when page is empty)
// and starts a daemon against it.
func startDaemon(t *testing.T, page string) *env {
	t.Helper()
	var hits atomic.Int32
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if page == "" {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	}))
	t.Cleanup(source.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithSourceURL(source.URL))
	engine := testsupport.NewFakeEngine()
	rt, err := api.OpenRuntime(cfg, nil,
		api.WithClock(menu.NewFixedClock(testsupport.Monday)),
		api.WithEngine(engine),
	)
	if err != nil {
		t.Fatalf("OpenRuntime: %v", err)
	}
	d, err := daemon.New(cfg, rt, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	return &env{
		cfg:    cfg,
		engine: engine,
		daemon: d,
		base:   "http://" + d.Addr(),
		hits:   &hits,
	}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestMenuEndpointServesFiveDays(t *testing.T) {
	e := startDaemon(t, testsupport.MenuPage(7))

	for _, path := range []string{"/api", "/cors"} {
		resp, body := get(t, e.base+path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.StatusCode, body)
		}
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("%s: expected CORS header, got %q", path, got)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
		var payload api.MenuResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if n := len(payload.Data.Menu.Food.Date); n != 5 {
			t.Fatalf("expected 5 days, got %d", n)
		}
		today := payload.Data.MenuToday.Food
		if today.NumDate != 0 || today.Date == nil || *today.Date != "Ma12.10." {
			t.Fatalf("unexpected today entry %+v", today)
		}
		if today.Vege == nil || *today.Vege != "Kasvisruoka 1" {
			t.Fatalf("expected vegetarian prefix stripped, got %v", today.Vege)
		}
	}
	if got := e.hits.Load(); got != 1 {
		t.Fatalf("expected one upstream fetch, got %d", got)
	}
}

func TestMenuEndpointFailsWithoutData(t *testing.T) {
	e := startDaemon(t, "")

	resp, body := get(t, e.base+"/api")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) != "{}" {
		t.Fatalf("expected empty object, got %q", body)
	}
}

func TestConcurrentColdVideoRequestsRenderOnce(t *testing.T) {
	e := startDaemon(t, testsupport.MenuPage(5))
	e.engine.Block()

	type result struct {
		status int
		body   string
		ctype  string
		err    error
	}
	first := make(chan result, 1)
	go func() {
		resp, err := http.Get(e.base + "/video")
		if err != nil {
			first <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		first <- result{status: resp.StatusCode, body: string(body), ctype: resp.Header.Get("Content-Type"), err: err}
	}()

	select {
	case <-e.engine.Started():
	case <-time.After(5 * time.Second):
		t.Fatal("render did not start")
	}

	resp, body := get(t, e.base+"/video")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 while rendering, got %d: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30, got %q", resp.Header.Get("Retry-After"))
	}
	if !strings.Contains(string(body), `"rendering"`) {
		t.Fatalf("unexpected busy body %q", body)
	}

	e.engine.Release()
	var r result
	select {
	case r = <-first:
	case <-time.After(10 * time.Second):
		t.Fatal("first request did not finish")
	}
	if r.err != nil {
		t.Fatalf("first request: %v", r.err)
	}
	if r.status != http.StatusOK || r.ctype != "video/mp4" {
		t.Fatalf("expected 200 video/mp4, got %d %q", r.status, r.ctype)
	}
	if want := "video:" + menu.KeyAt(testsupport.Monday).String(); r.body != want {
		t.Fatalf("expected body %q, got %q", want, r.body)
	}
	if got := e.engine.Calls(); got != 1 {
		t.Fatalf("expected exactly one render, got %d", got)
	}

	// The cached artifact is served without another render.
	resp, _ = get(t, e.base+"/video")
	if resp.StatusCode != http.StatusOK || e.engine.Calls() != 1 {
		t.Fatalf("expected cached video, got %d after %d renders", resp.StatusCode, e.engine.Calls())
	}
}

func TestVideoEngineFailureReturnsError(t *testing.T) {
	e := startDaemon(t, testsupport.MenuPage(5))
	e.engine.Fail(errors.New("composition missing"))

	resp, body := get(t, e.base+"/video")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var payload api.ErrorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(payload.Error, "composition missing") {
		t.Fatalf("unexpected error body %q", payload.Error)
	}

	e.engine.Fail(nil)
	resp, _ = get(t, e.base+"/video")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected guard to be released after failure, got %d", resp.StatusCode)
	}
}

func TestAuxiliaryRoutes(t *testing.T) {
	e := startDaemon(t, testsupport.MenuPage(5))

	resp, body := get(t, e.base+"/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "<h1>ruokalista</h1>") {
		t.Fatalf("unexpected docs page %d: %s", resp.StatusCode, body)
	}

	resp, body = get(t, e.base+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %d", resp.StatusCode)
	}
	var health api.HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Breaker != "closed" {
		t.Fatalf("unexpected health %+v", health)
	}

	get(t, e.base+"/api")
	resp, body = get(t, e.base+"/metrics")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ruokalista_http_requests_total") {
		t.Fatalf("expected api metrics, got %d", resp.StatusCode)
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	e := startDaemon(t, testsupport.MenuPage(5))

	cfg := *e.cfg
	cfg.Server.Bind = "127.0.0.1:0"
	rt, err := api.OpenRuntime(&cfg, nil, api.WithFetcher(testsupport.NewFakeFetcher(testsupport.Record(5))))
	if err != nil {
		t.Fatalf("OpenRuntime: %v", err)
	}
	second, err := daemon.New(&cfg, rt, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected lock conflict")
	}
	if status := e.daemon.Status(context.Background()); !status.Running {
		t.Fatal("first daemon should still be running")
	}
}

func TestRestartAfterStop(t *testing.T) {
	e := startDaemon(t, testsupport.MenuPage(5))
	e.daemon.Stop()
	if e.daemon.Status(context.Background()).Running {
		t.Fatal("expected stopped daemon")
	}
	if err := e.daemon.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	resp, _ := get(t, fmt.Sprintf("http://%s/api", e.daemon.Addr()))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after restart, got %d", resp.StatusCode)
	}
}
