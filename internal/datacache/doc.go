// Package datacache answers "is today's menu already cached?".
//
// Cache checks memory, then the persistent store, then the fetcher, in that
// order. Concurrent misses for one day key share a single fetch through
// singleflight. After a successful fetch every entry for another day key is
// deleted, so the store holds at most one entry. When the fetch fails the
// newest surviving entry is served marked stale.
package datacache
