// Package preflight provides readiness checks for the filesystem paths,
// the menu source and the render engine binaries ruokalista depends on.
//
// The CLI "ruokalista status" command runs RunAll and prints every result.
// The daemon logs a dependency snapshot at start-up but never refuses to
// serve: /api works without a render engine.
package preflight
