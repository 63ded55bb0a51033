package preflight

import (
	"context"

	"ruokalista/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Warning marks a failed check that does not prevent serving.
	Warning bool
}

// RunAll executes every preflight check for the given config. The source
// check performs one HTTP request.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckFreeSpace("Output free space", cfg.Paths.OutputDir, MinFreeBytes))
	results = append(results, CheckSource(ctx, cfg.Source.URL, cfg.Source.UserAgent))
	results = append(results, DependencyResults(CheckSystemDeps(cfg))...)
	return results
}

// Failed reports whether any non-warning check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Warning {
			return true
		}
	}
	return false
}
