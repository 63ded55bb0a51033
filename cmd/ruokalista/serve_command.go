package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ruokalista/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var development bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and daily scheduler in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    ctx.logLevel(),
				Development: development,
				Ready: func(addr string) {
					fmt.Fprintf(stdout, "Listening on %s\n", addr)
				},
			})
		},
	}
	cmd.Flags().BoolVar(&development, "development", false, "Include source locations in every log line")
	return cmd
}
