package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"ruokalista/internal/render"
)

// FakeEngine is a rendering engine that writes a few frames and a small
// output file. It can be made to block or fail.
type FakeEngine struct {
	mu      sync.Mutex
	err     error
	gate    chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{started: make(chan struct{}, 16)}
}

// Fail makes subsequent renders return err.
func (e *FakeEngine) Fail(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// Block makes Render wait until Release is called.
func (e *FakeEngine) Block() {
	e.mu.Lock()
	e.gate = make(chan struct{})
	e.mu.Unlock()
}

// Release unblocks pending and future renders.
func (e *FakeEngine) Release() {
	e.mu.Lock()
	if e.gate != nil {
		close(e.gate)
		e.gate = nil
	}
	e.mu.Unlock()
}

// Started receives one value per Render call once its frames are written.
func (e *FakeEngine) Started() <-chan struct{} { return e.started }

// Calls reports how many renders were started.
func (e *FakeEngine) Calls() int { return int(e.calls.Load()) }

func (e *FakeEngine) Render(ctx context.Context, job render.Job) (string, error) {
	e.calls.Add(1)
	for i := 0; i < 3; i++ {
		frame := filepath.Join(job.FramesDir, fmt.Sprintf("element-%03d.jpeg", i))
		if err := os.WriteFile(frame, []byte("frame"), 0o644); err != nil {
			return "", err
		}
	}
	select {
	case e.started <- struct{}{}:
	default:
	}

	e.mu.Lock()
	gate := e.gate
	e.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	e.mu.Lock()
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(job.OutputPath, []byte("video:"+job.Key), 0o644); err != nil {
		return "", err
	}
	return job.OutputPath, nil
}
