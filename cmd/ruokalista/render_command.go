package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ruokalista/internal/api"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render today's menu video",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(true, func(rt *api.Runtime) error {
				video, err := api.RenderToday(cmd.Context(), api.RenderTodayRequest{Runtime: rt, Force: force})
				if err != nil {
					return err
				}
				art := video.Artifact
				verb := "Rendered"
				if video.Reused {
					verb = "Already rendered"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s)\n", verb, art.Path, art.Key, humanize.IBytes(uint64(art.Size)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Render again even if today's video exists")
	return cmd
}
