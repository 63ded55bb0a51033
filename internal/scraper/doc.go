// Package scraper fetches the remote menu page and turns its listing elements
// into menu records.
//
// The fetcher bounds every request with the configured timeout and runs it
// behind a circuit breaker so a dead source site does not get hammered by
// every cache miss. All failures surface as services.ErrFetch.
package scraper
