// Package render turns a cached menu record into the day's video.
//
// Renderer is idempotent per day key: it reuses an existing artifact unless
// forced. Guard is the single mutual-exclusion flag for the engine, which
// writes fixed-named files into a shared frames directory. CommandEngine runs
// an external command line with {composition}, {props}, {frames} and {output}
// placeholders expanded.
package render
