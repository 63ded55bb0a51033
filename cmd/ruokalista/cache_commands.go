package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ruokalista/internal/api"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean cached menu data and videos",
	}
	cacheCmd.AddCommand(newCacheStatusCommand(ctx))
	cacheCmd.AddCommand(newCacheCleanCommand(ctx))
	return cacheCmd
}

func newCacheStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List persisted menu entries and rendered videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *api.Runtime) error {
				status := api.CacheStatus(cmd.Context(), rt)
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), status)
				}
				stdout := cmd.OutOrStdout()
				pretty := isTerminal(stdout)

				fmt.Fprintf(stdout, "Today: %s (slot %d)\n", status.Today, status.Slot)
				keys := "none"
				if len(status.PersistedKeys) > 0 {
					keys = strings.Join(status.PersistedKeys, ", ")
				}
				fmt.Fprintf(stdout, "Persisted days: %s\n", keys)
				if len(status.Artifacts) == 0 {
					fmt.Fprintln(stdout, "No rendered videos")
					return nil
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"Day", "Size", "Path"},
					artifactRows(status.Artifacts, status.Today),
					[]columnAlignment{alignLeft, alignRight, alignLeft},
					pretty,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

func artifactRows(arts []api.ArtifactInfo, today string) [][]string {
	rows := make([][]string, 0, len(arts))
	for _, art := range arts {
		key := art.Key
		if key == today {
			key += " (today)"
		}
		rows = append(rows, []string{key, humanize.IBytes(uint64(art.Size)), art.Path})
	}
	return rows
}

func newCacheCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove data and videos for days other than today",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(true, func(rt *api.Runtime) error {
				result, err := api.CleanCache(cmd.Context(), rt)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(result.DeletedKeys) == 0 && result.PrunedArtifacts == 0 {
					fmt.Fprintln(stdout, "Cache already clean")
					return nil
				}
				fmt.Fprintf(stdout, "Removed %d persisted %s and %d %s\n",
					len(result.DeletedKeys), plural(len(result.DeletedKeys), "day", "days"),
					result.PrunedArtifacts, plural(result.PrunedArtifacts, "video", "videos"))
				return nil
			})
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
