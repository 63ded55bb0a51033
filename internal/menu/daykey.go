package menu

import (
	"fmt"
	"strings"
	"time"
)

const dayKeyLayout = "20060102"

// DayKey identifies the calendar day a cached value belongs to, formatted
// YYYYMMDD in the configured time zone. Keys compare lexicographically in
// date order.
type DayKey string

// KeyAt returns the day key for t in t's location.
func KeyAt(t time.Time) DayKey {
	return DayKey(t.Format(dayKeyLayout))
}

// ParseDayKey validates a YYYYMMDD string.
func ParseDayKey(value string) (DayKey, error) {
	value = strings.TrimSpace(value)
	if _, err := time.Parse(dayKeyLayout, value); err != nil {
		return "", fmt.Errorf("parse day key %q: %w", value, err)
	}
	return DayKey(value), nil
}

func (k DayKey) String() string { return string(k) }

// Before reports whether k is an earlier day than other.
func (k DayKey) Before(other DayKey) bool { return k < other }

// TodaySlot maps a weekday to an index into Record.Days: Monday is 0 and
// Friday is 4. Saturday and Sunday collapse to 4.
func TodaySlot(t time.Time) int {
	switch t.Weekday() {
	case time.Monday:
		return 0
	case time.Tuesday:
		return 1
	case time.Wednesday:
		return 2
	case time.Thursday:
		return 3
	default:
		return 4
	}
}
