package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ruokalista/internal/daemonctl"
	"ruokalista/internal/preflight"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	var grace time.Duration
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running ruokalista server",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.configValue(), grace)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit within %s; killed pid %d\n", grace, result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 15*time.Second, "How long to wait for a graceful shutdown before killing")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server, cache and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.configValue())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), snap)
			}

			w := newStatusWriter(cmd.OutOrStdout())
			w.section("Server")
			writeServerStatus(w, snap)
			w.blank()
			w.section("System Checks")
			for _, result := range snap.Checks {
				w.line(result.Name, checkKind(result), result.Detail)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the snapshot as JSON")
	return cmd
}

func writeServerStatus(w *statusWriter, snap *daemonctl.StatusSnapshot) {
	if !snap.Running {
		w.line("Process", statusInfo, "not running")
		return
	}
	process := "running"
	if snap.PID > 0 {
		process = fmt.Sprintf("running (pid %d)", snap.PID)
	}
	w.line("Process", statusOK, process)
	health := snap.Health
	if health == nil {
		w.line("Health", statusWarn, "health endpoint unreachable")
		return
	}

	healthKind := statusOK
	if health.Status != "ok" {
		healthKind = statusWarn
	}
	now := time.Now()
	uptime := humanize.RelTime(now.Add(-time.Duration(health.UptimeSecs)*time.Second), now, "", "")
	w.line("Health", healthKind, fmt.Sprintf("%s, up %s", health.Status, strings.TrimSpace(uptime)))
	w.line("Source breaker", breakerKind(health.Breaker), health.Breaker)
	w.line("Storage", statusInfo, health.StorageKind)
	if health.NextRun != "" {
		w.line("Next run", statusInfo, health.NextRun)
	}
	wf := health.Workflow
	w.line("Today", statusInfo, fmt.Sprintf("%s (slot %d)", wf.Today, wf.Slot))
	w.line("Rendering", statusInfo, yesNo(wf.Rendering))
	if wf.LastRun == nil {
		return
	}
	kind, detail := statusOK, "completed"
	switch {
	case wf.LastRun.Error != "":
		kind, detail = statusError, wf.LastRun.Error
	case wf.LastRun.Skipped:
		kind, detail = statusWarn, "skipped (render in progress)"
	case wf.LastRun.Rendered:
		detail = "rendered new video"
	}
	w.line("Last run", kind, detail)
}

func breakerKind(state string) statusKind {
	switch state {
	case "closed":
		return statusOK
	case "open":
		return statusError
	case "half-open":
		return statusWarn
	default:
		return statusInfo
	}
}

func checkKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Warning:
		return statusWarn
	default:
		return statusError
	}
}
