// Package services defines shared utilities consumed by the fetch, cache and
// render components.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and triggers for
//     logging.
//   - Structured error markers plus the Wrap helper so HTTP handlers, metrics
//     and the scheduler classify failures the same way.
package services
