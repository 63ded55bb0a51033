package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ruokalista/internal/api"
	"ruokalista/internal/menu"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and print the lunch menu for the current week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(false, func(rt *api.Runtime) error {
				snap, err := api.FetchMenu(cmd.Context(), api.FetchMenuRequest{Runtime: rt, Force: force})
				if err != nil {
					return err
				}
				now := rt.Clock.Now()
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), api.FromRecord(now, snap.Record, rt.Config.Source.URL))
				}

				stdout := cmd.OutOrStdout()
				if snap.Stale {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: source unavailable, showing data cached for %s\n", snap.Key)
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"#", "Day", "Main", "Vegetarian"},
					menuRows(snap.Record, menu.TodaySlot(now)),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
					isTerminal(stdout),
				))
				fmt.Fprintf(stdout, "Fetched %s from %s\n", humanize.Time(snap.Record.FetchedAt), rt.Config.Source.URL)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Fetch from the source even when today's data is cached")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the /api response body instead of a table")
	return cmd
}

// menuRows lists every day in the record, marking today's slot.
func menuRows(rec menu.Record, todaySlot int) [][]string {
	rows := make([][]string, 0, rec.Len())
	for i, day := range rec.Days {
		marker := strconv.Itoa(i + 1)
		if i == todaySlot {
			marker += "*"
		}
		rows = append(rows, []string{marker, day.Label, day.MainMeal, day.VegetarianMeal})
	}
	return rows
}
