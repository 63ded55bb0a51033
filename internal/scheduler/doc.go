// Package scheduler runs the daily refresh-and-render cycle on a cron
// expression evaluated in the configured time zone.
package scheduler
