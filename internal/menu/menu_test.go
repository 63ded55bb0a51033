package menu_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ruokalista/internal/menu"
)

func TestTodaySlot(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 2026-10-12 is a Monday.
	monday := time.Date(2026, time.October, 12, 9, 0, 0, 0, helsinki)
	want := []int{0, 1, 2, 3, 4, 4, 4}
	for i, expected := range want {
		day := monday.AddDate(0, 0, i)
		if got := menu.TodaySlot(day); got != expected {
			t.Fatalf("TodaySlot(%s) = %d, want %d", day.Weekday(), got, expected)
		}
	}
}

func TestKeyAtUsesLocation(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 22:30 UTC on the 18th is already the 19th in Helsinki.
	utc := time.Date(2026, time.October, 18, 22, 30, 0, 0, time.UTC)
	if got := menu.KeyAt(utc); got != "20261018" {
		t.Fatalf("utc key = %s", got)
	}
	if got := menu.KeyAt(utc.In(helsinki)); got != "20261019" {
		t.Fatalf("helsinki key = %s", got)
	}
}

func TestDayKeyOrdering(t *testing.T) {
	a := menu.KeyAt(time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC))
	b := menu.KeyAt(time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("expected %s before %s", a, b)
	}
}

func TestParseDayKey(t *testing.T) {
	if _, err := menu.ParseDayKey("20261018"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := menu.ParseDayKey("2026-10-18"); err == nil {
		t.Fatal("expected error for dashed key")
	}
}

func TestRecordTodayAndColumns(t *testing.T) {
	rec := menu.Record{Days: []menu.Day{
		{Label: "Ma12.10.", MainMeal: "Kalakeitto", VegetarianMeal: "Kasviskeitto"},
		{Label: "Ti13.10.", MainMeal: "Lihapullat", VegetarianMeal: "Soijapullat"},
	}}

	if day, ok := rec.Today(1); !ok || day.MainMeal != "Lihapullat" {
		t.Fatalf("unexpected today entry: %+v %v", day, ok)
	}
	if _, ok := rec.Today(4); ok {
		t.Fatal("expected missing slot")
	}

	want := menu.Columns{
		Date:   []string{"Ma12.10.", "Ti13.10."},
		Normal: []string{"Kalakeitto", "Lihapullat"},
		Vege:   []string{"Kasviskeitto", "Soijapullat"},
	}
	if diff := cmp.Diff(want, rec.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordEqualIgnoresMetadata(t *testing.T) {
	days := []menu.Day{{Label: "Ma", MainMeal: "A", VegetarianMeal: "B"}}
	a := menu.Record{Days: days, FetchedAt: time.Unix(1, 0)}
	b := menu.Record{Days: append([]menu.Day(nil), days...), FetchedAt: time.Unix(2, 0)}
	if !a.Equal(b) {
		t.Fatal("expected records to be equal")
	}
	b.Days[0].MainMeal = "C"
	if a.Equal(b) {
		t.Fatal("expected records to differ")
	}
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, time.October, 18, 23, 59, 0, 0, time.UTC)
	clock := menu.NewFixedClock(start)
	if got := menu.Today(clock); got != "20261018" {
		t.Fatalf("unexpected key %s", got)
	}
	clock.Advance(2 * time.Minute)
	if got := menu.Today(clock); got != "20261019" {
		t.Fatalf("unexpected key after advance %s", got)
	}
}
