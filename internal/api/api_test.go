package api_test

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ruokalista/internal/api"
	"ruokalista/internal/menu"
	"ruokalista/internal/testsupport"
)

func TestDateFormatting(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2026, time.October, 18, 15, 4, 5, 0, loc)

	if got := api.FormatFullDate(now); got != "lokakuu 18. 2026, 3:04:05 pm" {
		t.Fatalf("FormatFullDate = %q", got)
	}
	if got := api.FormatShortDate(now); got != "18.10.2026" {
		t.Fatalf("FormatShortDate = %q", got)
	}
	if got := api.WeekNumber(now); got != "42" {
		t.Fatalf("WeekNumber = %q", got)
	}
	if got := api.FinnishMonth(time.July); got != "heinäkuu" {
		t.Fatalf("FinnishMonth = %q", got)
	}
}

func TestFromRecordPopulatesToday(t *testing.T) {
	wednesday := time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC)
	resp := api.FromRecord(wednesday, testsupport.Record(5), "https://example.test/ruokailu/")

	if resp.StatusCode != 200 || resp.StatusMessage != "OK" {
		t.Fatalf("unexpected status %d %q", resp.StatusCode, resp.StatusMessage)
	}
	if resp.TimeNow != wednesday.UnixMilli() {
		t.Fatalf("unexpected time_now %d", resp.TimeNow)
	}
	if len(resp.Data.Menu.Food.Date) != 5 {
		t.Fatalf("expected 5 days, got %v", resp.Data.Menu.Food.Date)
	}
	today := resp.Data.MenuToday.Food
	if today.NumDate != 2 {
		t.Fatalf("expected slot 2, got %d", today.NumDate)
	}
	want := []string{"Ke14.10.", "Pääruoka 3", "Kasvisruoka 3"}
	got := []string{deref(today.Date), deref(today.Normal), deref(today.Vege)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("today mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRecordWeekendUsesFriday(t *testing.T) {
	saturday := time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
	resp := api.FromRecord(saturday, testsupport.Record(5), "")
	if resp.Data.MenuToday.Food.NumDate != 4 {
		t.Fatalf("expected slot 4 on Saturday, got %d", resp.Data.MenuToday.Food.NumDate)
	}
	if deref(resp.Data.MenuToday.Food.Normal) != "Pääruoka 5" {
		t.Fatalf("unexpected weekend meal %v", resp.Data.MenuToday.Food.Normal)
	}
}

func TestFromRecordEmptyEncodesNulls(t *testing.T) {
	resp := api.FromRecord(testsupport.Monday, menu.Record{}, "")
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"date":[]`, `"date":null`, `"normal":null`, `"vege":null`, `"current_week":"42"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}

func TestCleanCacheKeepsToday(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := menu.NewFixedClock(testsupport.Monday)
	fetcher := testsupport.NewFakeFetcher(testsupport.Record(5))
	rt, err := api.OpenRuntime(cfg, nil,
		api.WithClock(clock),
		api.WithFetcher(fetcher),
		api.WithEngine(testsupport.NewFakeEngine()),
	)
	if err != nil {
		t.Fatalf("OpenRuntime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	ctx := context.Background()

	yesterday := menu.KeyAt(testsupport.Monday.AddDate(0, 0, -1))
	if err := rt.Store.Save(ctx, yesterday, testsupport.Record(3)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := os.WriteFile(rt.Artifacts.Path(yesterday), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}
	if _, err := api.RenderToday(ctx, api.RenderTodayRequest{Runtime: rt}); err != nil {
		t.Fatalf("RenderToday: %v", err)
	}
	// Seed again: the successful fetch already removed yesterday.
	if err := rt.Store.Save(ctx, yesterday, testsupport.Record(3)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	result, err := api.CleanCache(ctx, rt)
	if err != nil {
		t.Fatalf("CleanCache: %v", err)
	}
	if diff := cmp.Diff([]string{yesterday.String()}, result.DeletedKeys); diff != "" {
		t.Fatalf("deleted keys mismatch (-want +got):\n%s", diff)
	}

	status := api.CacheStatus(ctx, rt)
	if diff := cmp.Diff([]string{menu.KeyAt(testsupport.Monday).String()}, status.PersistedKeys); diff != "" {
		t.Fatalf("persisted keys mismatch (-want +got):\n%s", diff)
	}
	if len(status.Artifacts) != 1 || status.Artifacts[0].Key != menu.KeyAt(testsupport.Monday).String() {
		t.Fatalf("unexpected artifacts %+v", status.Artifacts)
	}
}

func TestFetchMenuForceRefetches(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fetcher := testsupport.NewFakeFetcher(testsupport.Record(5))
	rt, err := api.OpenRuntime(cfg, nil,
		api.WithClock(menu.NewFixedClock(testsupport.Monday)),
		api.WithFetcher(fetcher),
		api.WithEngine(testsupport.NewFakeEngine()),
	)
	if err != nil {
		t.Fatalf("OpenRuntime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := api.FetchMenu(ctx, api.FetchMenuRequest{Runtime: rt}); err != nil {
			t.Fatalf("FetchMenu: %v", err)
		}
	}
	if fetcher.Calls() != 1 {
		t.Fatalf("expected cached second fetch, got %d calls", fetcher.Calls())
	}
	snap, err := api.FetchMenu(ctx, api.FetchMenuRequest{Runtime: rt, Force: true})
	if err != nil {
		t.Fatalf("forced FetchMenu: %v", err)
	}
	if fetcher.Calls() != 2 || snap.Record.Len() != 5 {
		t.Fatalf("expected forced refetch, got %d calls", fetcher.Calls())
	}
	if rt.BreakerState() != "n/a" {
		t.Fatalf("fake fetcher has no breaker, got %q", rt.BreakerState())
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
