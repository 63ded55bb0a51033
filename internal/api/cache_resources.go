package api

import (
	"context"
	"fmt"

	"ruokalista/internal/menu"
)

// CacheCleanResult lists what CleanCache removed.
type CacheCleanResult struct {
	DeletedKeys     []string
	PrunedArtifacts int
}

// CacheStatus reports persisted data keys and cached artifacts.
func CacheStatus(ctx context.Context, rt *Runtime) WorkflowStatus {
	return FromStatusSummary(rt.Manager.Status(ctx))
}

// CleanCache removes persisted entries and artifacts for every day other
// than today, plus any leftover intermediate files. Today's data and
// artifact are kept.
func CleanCache(ctx context.Context, rt *Runtime) (CacheCleanResult, error) {
	var result CacheCleanResult
	if rt.Manager.Guard().Busy() {
		return result, fmt.Errorf("render in progress; try again later")
	}
	today := menu.Today(rt.Clock)

	keys, err := rt.Store.Keys(ctx)
	if err != nil {
		return result, fmt.Errorf("list persisted keys: %w", err)
	}
	for _, key := range keys {
		if key == today {
			continue
		}
		if err := rt.Store.Delete(ctx, key); err != nil {
			return result, fmt.Errorf("delete entry %s: %w", key, err)
		}
		result.DeletedKeys = append(result.DeletedKeys, key.String())
	}

	pruned, err := rt.Artifacts.PruneStale()
	result.PrunedArtifacts = pruned
	if err != nil {
		return result, fmt.Errorf("prune artifacts: %w", err)
	}
	if err := rt.Artifacts.CleanIntermediate(); err != nil {
		return result, fmt.Errorf("remove intermediates: %w", err)
	}
	return result, nil
}
