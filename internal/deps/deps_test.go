package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	present := filepath.Join(t.TempDir(), "present")
	writeStub(t, present)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", results[2].Detail)
	}
}

func TestResolvePrefersProjectBin(t *testing.T) {
	project := t.TempDir()
	local := filepath.Join(project, "node_modules", ".bin", "remotion")
	writeStub(t, local)

	got, err := Resolve("remotion", project)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != local {
		t.Fatalf("expected %s, got %s", local, got)
	}
}

func TestRenderRequirementsForPackageRunner(t *testing.T) {
	reqs := RenderRequirements("npx", []string{"--yes", "remotion", "render", "{composition}"}, "/srv/render")
	if len(reqs) != 3 {
		t.Fatalf("expected engine, node and tool requirements, got %#v", reqs)
	}
	if reqs[2].Command != "remotion" || !reqs[2].Optional || reqs[2].WorkDir != "/srv/render" {
		t.Fatalf("unexpected tool requirement %#v", reqs[2])
	}

	direct := RenderRequirements("/usr/local/bin/render-menu", []string{"{props}"}, "")
	if len(direct) != 1 {
		t.Fatalf("expected single requirement for direct command, got %#v", direct)
	}
}

func TestRunnerToolIgnoresPlaceholders(t *testing.T) {
	if got := runnerTool([]string{"{composition}", "remotion"}); got != "" {
		t.Fatalf("expected no tool, got %q", got)
	}
	if got := runnerTool([]string{"-y", "", "remotion"}); got != "remotion" {
		t.Fatalf("expected remotion, got %q", got)
	}
}
