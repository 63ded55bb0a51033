// Package menu holds the menu data model shared by the fetcher, caches and
// HTTP layer: the per-fetch Record, the calendar Day Key used for every cache
// decision, and the weekday slot that selects today's entry.
package menu
