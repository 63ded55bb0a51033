package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofrs/flock"

	"ruokalista/internal/api"
	"ruokalista/internal/services"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Render engine: "+filepath.Join(env.baseDir, "bin", "render-menu"))
	requireContains(t, out, "Storage backend: file")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestFetchPrintsWeekAndCaches(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"fetch"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Pääruoka 1")
	requireContains(t, out, "Kasvisruoka 5")
	if lines := strings.Count(out, "\n"); lines < 6 {
		t.Fatalf("expected header plus five rows, got:\n%s", out)
	}

	if _, _, err := runCLI(t, []string{"fetch"}, env.configPath); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if got := env.hits.Load(); got != 1 {
		t.Fatalf("expected cached second fetch, source hit %d times", got)
	}

	if _, _, err := runCLI(t, []string{"fetch", "--force"}, env.configPath); err != nil {
		t.Fatalf("forced fetch: %v", err)
	}
	if got := env.hits.Load(); got != 2 {
		t.Fatalf("expected forced fetch to reach source, hit %d times", got)
	}
}

func TestFetchJSONMatchesAPIShape(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"fetch", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch --json: %v", err)
	}
	var resp api.MenuResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if resp.StatusCode != 200 || len(resp.Data.Menu.Food.Normal) != 5 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRenderThenCacheStatusAndClean(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"render"}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, out, "Rendered ")

	out, _, err = runCLI(t, []string{"render"}, env.configPath)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	requireContains(t, out, "Already rendered")

	out, _, err = runCLI(t, []string{"cache", "status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache status: %v", err)
	}
	var status api.WorkflowStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if len(status.Artifacts) != 1 || status.Artifacts[0].Key != status.Today {
		t.Fatalf("expected today's artifact, got %+v", status.Artifacts)
	}

	out, _, err = runCLI(t, []string{"cache", "clean"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clean: %v", err)
	}
	requireContains(t, out, "Cache already clean")
}

func TestRenderRefusesWhileDaemonHoldsLock(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.outputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(filepath.Join(env.outputDir, "ruokalista.lock"))
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("take lock: %v %v", ok, err)
	}
	defer lock.Unlock()

	_, _, err := runCLI(t, []string{"render"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "daemon is running") {
		t.Fatalf("expected daemon running error, got %v", err)
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Server ==")
	requireContains(t, out, "not running")
	requireContains(t, out, "== System Checks ==")

	out, _, err = runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestEnvFileLoadsBeforeConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	envFile := filepath.Join(env.baseDir, "test.env")
	if err := os.WriteFile(envFile, []byte("RUOKALISTA_TEST_MARKER=loaded\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("RUOKALISTA_TEST_MARKER") })

	if _, _, err := runCLI(t, []string{"config", "validate", "--env-file", envFile}, env.configPath); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if got := os.Getenv("RUOKALISTA_TEST_MARKER"); got != "loaded" {
		t.Fatalf("expected env file to be loaded, got %q", got)
	}

	_, _, err := runCLI(t, []string{"config", "validate", "--env-file", filepath.Join(env.baseDir, "missing.env")}, env.configPath)
	if err == nil {
		t.Fatal("expected explicit missing env file to fail")
	}
}

func TestRenderTableFallsBackToTSV(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1", "x\ty"}, {"2"}}, nil, false)
	want := "A\tB\n1\tx y\n2\t\n"
	if out != want {
		t.Fatalf("renderTable = %q, want %q", out, want)
	}
}

func TestLogsPrintsTail(t *testing.T) {
	env := setupCLITestEnv(t)
	logDir := filepath.Join(env.baseDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "first\nsecond request_id=r1\nthird\n"
	if err := os.WriteFile(filepath.Join(logDir, "ruokalista.log"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second request_id=r1\nthird\n" {
		t.Fatalf("unexpected logs output %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--grep", "r1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --grep: %v", err)
	}
	if out != "second request_id=r1\n" {
		t.Fatalf("unexpected filtered output %q", out)
	}
}

func TestTestNotifyPostsToTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "not configured")

	var posts atomic.Int32
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		}
	}))
	defer ntfy.Close()
	t.Setenv("NTFY_TOPIC", ntfy.URL+"/ruokalista")

	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if posts.Load() != 1 {
		t.Fatalf("expected one ntfy post, got %d", posts.Load())
	}
}

func TestRunReportsErrorsWithExitCode(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"config", "init", "--path", target}, &stdout, &stderr); code != 0 {
		t.Fatalf("config init exit code = %d, stderr: %s", code, stderr.String())
	}
	requireContains(t, stdout.String(), "Wrote sample configuration")

	stderr.Reset()
	if code := run([]string{"config", "init", "--path", target}, &stdout, &stderr); code != exitFailure {
		t.Fatalf("expected exit code %d, got %d", exitFailure, code)
	}
	requireContains(t, stderr.String(), "ruokalista: ")
	requireContains(t, stderr.String(), "already exists")
}

func TestExitCodeByErrorKind(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"success":       {nil, 0},
		"configuration": {services.Wrap(services.ErrConfiguration, "config", "load", "bad cron", nil), exitConfiguration},
		"no data":       {services.Wrap(services.ErrNoData, "datacache", "get today", "empty", nil), exitNoData},
		"busy":          {services.Wrap(services.ErrRenderBusy, "renderer", "render", "", nil), exitBusy},
		"other":         {errors.New("boom"), exitFailure},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestWriteJSONKeepsDishNamesReadable(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, map[string]string{"main": "Kala & peruna <gluteeniton>"}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	want := "{\n  \"main\": \"Kala & peruna <gluteeniton>\"\n}\n"
	if buf.String() != want {
		t.Fatalf("unexpected JSON:\n%s", buf.String())
	}
}
