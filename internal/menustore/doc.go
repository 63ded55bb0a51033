// Package menustore persists menu records keyed by day.
//
// Three interchangeable backends implement Store: one JSON file per key
// (default), a SQLite table, and an embedded Badger database. The data cache
// only depends on the Store interface, so the medium can change without
// touching the fetch orchestration.
package menustore
