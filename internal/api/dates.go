package api

import (
	"fmt"
	"strconv"
	"time"
)

var finnishMonths = [...]string{
	"tammikuu", "helmikuu", "maaliskuu", "huhtikuu", "toukokuu", "kesäkuu",
	"heinäkuu", "elokuu", "syyskuu", "lokakuu", "marraskuu", "joulukuu",
}

// FinnishMonth returns the nominative Finnish month name.
func FinnishMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return finnishMonths[m-1]
}

// FormatFullDate renders t as "lokakuu 18. 2026, 3:04:05 pm".
func FormatFullDate(t time.Time) string {
	return fmt.Sprintf("%s %d. %d, %s", FinnishMonth(t.Month()), t.Day(), t.Year(), t.Format("3:04:05 pm"))
}

// FormatShortDate renders t as "18.10.2026" without zero padding.
func FormatShortDate(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d", t.Day(), int(t.Month()), t.Year())
}

// WeekNumber returns the ISO week of t as a string. Finnish week numbering
// is the ISO one.
func WeekNumber(t time.Time) string {
	_, week := t.ISOWeek()
	return strconv.Itoa(week)
}
