package render

import (
	"sync/atomic"

	"ruokalista/internal/metrics"
)

// Guard is the process-wide mutual exclusion for the rendering engine and the
// artifact file set. Callers that fail TryEnter must skip rendering rather
// than wait.
type Guard struct {
	busy atomic.Bool
}

// TryEnter moves the guard from idle to rendering. It returns false when a
// render is already in progress.
func (g *Guard) TryEnter() bool {
	if !g.busy.CompareAndSwap(false, true) {
		return false
	}
	metrics.TrackRender(true)
	return true
}

// Exit returns the guard to idle. Calling it on an idle guard is a no-op.
func (g *Guard) Exit() {
	if g.busy.CompareAndSwap(true, false) {
		metrics.TrackRender(false)
	}
}

// Busy reports whether a render is in progress.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
