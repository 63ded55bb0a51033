package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"ruokalista/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	source     *httptest.Server
	hits       *atomic.Int32
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("RUOKALISTA_SOURCE_URL", "")
	t.Setenv("RUOKALISTA_OUTPUT_DIR", "")
	t.Setenv("PORT", "")
	t.Setenv("NTFY_TOPIC", "")
	t.Setenv("RUOKALISTA_CRON", "")
	t.Setenv("RUOKALISTA_TIMEZONE", "")

	hits := new(atomic.Int32)
	page := testsupport.MenuPage(5)
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(source.Close)

	engine := filepath.Join(base, "bin", "render-menu")
	if err := os.MkdirAll(filepath.Dir(engine), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	script := "#!/bin/sh\nprintf 'video' > \"$1\"\n"
	if err := os.WriteFile(engine, []byte(script), 0o755); err != nil {
		t.Fatalf("write engine stub: %v", err)
	}

	outputDir := filepath.Join(base, "output")
	configPath := filepath.Join(base, "config.toml")
	body := strings.Join([]string{
		"[source]",
		`url = "` + source.URL + `/ruokailu/"`,
		"timeout_seconds = 5",
		"[paths]",
		`output_dir = "` + outputDir + `"`,
		`log_dir = "` + filepath.Join(base, "logs") + `"`,
		"[server]",
		`bind = "127.0.0.1:0"`,
		"[render]",
		`command = "` + engine + `"`,
		`args = ["{output}"]`,
		"[scheduler]",
		"enabled = false",
		"[notifications]",
		"errors = false",
		"[logging]",
		`level = "error"`,
		"",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		outputDir:  outputDir,
		source:     source,
		hits:       hits,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	full := append([]string{}, args...)
	if configPath != "" {
		full = append(full, "--config", configPath)
	}
	cmd.SetArgs(full)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
