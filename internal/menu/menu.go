package menu

import (
	"time"
)

// MaxDays bounds the number of entries collected by a single fetch.
const MaxDays = 5

// Day is one listing of the weekly menu in source-site order.
type Day struct {
	Label          string `json:"label"`
	MainMeal       string `json:"main_meal"`
	VegetarianMeal string `json:"vegetarian_meal"`
}

// Record is the normalized result of one successful fetch. A record is
// immutable once built and replaced wholesale by the next fetch.
type Record struct {
	Days      []Day     `json:"days"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source,omitempty"`
}

// Len reports the number of collected days.
func (r Record) Len() int {
	return len(r.Days)
}

// Today returns the entry for the given slot, if the record has one.
func (r Record) Today(slot int) (Day, bool) {
	if slot < 0 || slot >= len(r.Days) {
		return Day{}, false
	}
	return r.Days[slot], true
}

// Equal reports whether two records carry the same menu. Fetch metadata is ignored.
func (r Record) Equal(other Record) bool {
	if len(r.Days) != len(other.Days) {
		return false
	}
	for i := range r.Days {
		if r.Days[i] != other.Days[i] {
			return false
		}
	}
	return true
}

// Columns is the column-oriented wire shape used by the HTTP API.
type Columns struct {
	Date   []string `json:"date"`
	Normal []string `json:"normal"`
	Vege   []string `json:"vege"`
}

// Columns converts the record to parallel label/main/vegetarian arrays.
func (r Record) Columns() Columns {
	cols := Columns{
		Date:   make([]string, 0, len(r.Days)),
		Normal: make([]string, 0, len(r.Days)),
		Vege:   make([]string, 0, len(r.Days)),
	}
	for _, day := range r.Days {
		cols.Date = append(cols.Date, day.Label)
		cols.Normal = append(cols.Normal, day.MainMeal)
		cols.Vege = append(cols.Vege, day.VegetarianMeal)
	}
	return cols
}

// FromColumns rebuilds a record from the column-oriented wire shape. Columns
// are truncated to the shortest of the three.
func FromColumns(cols Columns) Record {
	n := min(len(cols.Date), len(cols.Normal), len(cols.Vege))
	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, Day{Label: cols.Date[i], MainMeal: cols.Normal[i], VegetarianMeal: cols.Vege[i]})
	}
	return Record{Days: days}
}
