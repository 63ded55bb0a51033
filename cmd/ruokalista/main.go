package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"ruokalista/internal/services"
)

// Process exit codes by error kind.
const (
	exitFailure       = 1
	exitConfiguration = 2
	exitNoData        = 3
	exitBusy          = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "ruokalista: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch services.Kind(err) {
	case "configuration":
		return exitConfiguration
	case "no_data":
		return exitNoData
	case "busy":
		return exitBusy
	default:
		return exitFailure
	}
}
