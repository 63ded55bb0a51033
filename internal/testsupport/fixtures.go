package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ruokalista/internal/menu"
)

var weekdayLabels = []string{"Ma", "Ti", "Ke", "To", "Pe", "La", "Su"}

// MenuPage renders an HTML page shaped like the source site with n listings,
// starting on Monday 12.10.
func MenuPage(n int) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"ruoka\">\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<div class="ruoka-template-header">
  <span class="ruoka-header-pvm">%s %d.10.</span>
  <p class="ruoka-header-ruoka">Pääruoka %d</p>
  <p class="ruoka-header-kasvisruoka">  Kasvisruoka Kasvisruoka %d</p>
</div>
`, weekdayLabels[i%len(weekdayLabels)], 12+i, i+1, i+1)
	}
	b.WriteString("</div></body></html>\n")
	return b.String()
}

// Record builds a parsed record equivalent to MenuPage(n).
func Record(n int) menu.Record {
	days := make([]menu.Day, 0, n)
	for i := 0; i < n && i < menu.MaxDays; i++ {
		days = append(days, menu.Day{
			Label:          fmt.Sprintf("%s%d.10.", weekdayLabels[i%len(weekdayLabels)], 12+i),
			MainMeal:       fmt.Sprintf("Pääruoka %d", i+1),
			VegetarianMeal: fmt.Sprintf("Kasvisruoka %d", i+1),
		})
	}
	return menu.Record{Days: days}
}

// FakeFetcher is a controllable fetcher that counts invocations.
type FakeFetcher struct {
	mu     sync.Mutex
	record menu.Record
	err    error
	gate   chan struct{}
	calls  atomic.Int32
}

// NewFakeFetcher returns a fetcher that yields rec.
func NewFakeFetcher(rec menu.Record) *FakeFetcher {
	return &FakeFetcher{record: rec}
}

// Set replaces the next result.
func (f *FakeFetcher) Set(rec menu.Record, err error) {
	f.mu.Lock()
	f.record = rec
	f.err = err
	f.mu.Unlock()
}

// Block makes Fetch wait until Release is called.
func (f *FakeFetcher) Block() {
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()
}

// Release unblocks pending and future fetches.
func (f *FakeFetcher) Release() {
	f.mu.Lock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
	f.mu.Unlock()
}

// Calls reports how many fetches were started.
func (f *FakeFetcher) Calls() int {
	return int(f.calls.Load())
}

func (f *FakeFetcher) Fetch(ctx context.Context) (menu.Record, error) {
	f.calls.Add(1)
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return menu.Record{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return menu.Record{}, f.err
	}
	rec := f.record
	rec.Days = append([]menu.Day(nil), f.record.Days...)
	rec.FetchedAt = time.Now()
	return rec, nil
}
