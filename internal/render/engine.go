package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"ruokalista/internal/config"
	"ruokalista/internal/logging"
)

var commandContext = exec.CommandContext

// Job is one engine invocation.
type Job struct {
	ID          string
	Key         string
	Composition string
	PropsPath   string
	FramesDir   string
	OutputPath  string
}

// Engine turns a props file into a video. It returns the path of the produced
// file, which is normally job.OutputPath.
type Engine interface {
	Render(ctx context.Context, job Job) (string, error)
}

// CommandEngine runs an external command line such as the Remotion CLI.
type CommandEngine struct {
	binary  string
	args    []string
	workDir string
	logger  *slog.Logger
}

const stderrTailLines = 8

// NewCommandEngine builds an engine from the render configuration.
func NewCommandEngine(cfg *config.Config, logger *slog.Logger) *CommandEngine {
	return &CommandEngine{
		binary:  cfg.Render.Command,
		args:    append([]string(nil), cfg.Render.Args...),
		workDir: cfg.Render.WorkDir,
		logger:  logging.NewComponentLogger(logger, "render-engine"),
	}
}

// Binary returns the configured executable.
func (e *CommandEngine) Binary() string { return e.binary }

// Args expands placeholders in the configured arguments for job.
func (e *CommandEngine) Args(job Job) []string {
	replacer := strings.NewReplacer(
		"{composition}", job.Composition,
		"{props}", job.PropsPath,
		"{frames}", job.FramesDir,
		"{output}", job.OutputPath,
		"{key}", job.Key,
	)
	out := make([]string, 0, len(e.args))
	for _, arg := range e.args {
		out = append(out, replacer.Replace(arg))
	}
	return out
}

func (e *CommandEngine) Render(ctx context.Context, job Job) (string, error) {
	if strings.TrimSpace(e.binary) == "" {
		return "", errors.New("render command not configured")
	}
	if job.OutputPath == "" {
		return "", errors.New("output path required")
	}

	args := e.Args(job)
	logger := e.logger.With(logging.String(logging.FieldJobID, job.ID))
	logger.Debug("starting render command",
		logging.String("binary", e.binary),
		logging.String("args", strings.Join(args, " ")),
	)

	cmd := commandContext(ctx, e.binary, args...) //nolint:gosec
	if e.workDir != "" {
		cmd.Dir = e.workDir
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start %s: %w", e.binary, err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		tail []string
	)
	scan := func(r io.Reader, keep bool) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			logger.Debug("render output", logging.String("line", line))
			if keep {
				mu.Lock()
				tail = append(tail, line)
				if len(tail) > stderrTailLines {
					tail = tail[len(tail)-stderrTailLines:]
				}
				mu.Unlock()
			}
		}
	}
	wg.Add(2)
	go scan(stdout, false)
	go scan(stderr, true)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("render command interrupted: %w", ctxErr)
		}
		detail := strings.Join(tail, "; ")
		if detail != "" {
			return "", fmt.Errorf("render command failed: %w: %s", err, detail)
		}
		return "", fmt.Errorf("render command failed: %w", err)
	}

	if _, err := os.Stat(job.OutputPath); err != nil {
		return "", fmt.Errorf("render command produced no output: %w", err)
	}
	return job.OutputPath, nil
}

var _ Engine = (*CommandEngine)(nil)
