// Package workflow coordinates the daily fetch, cache and render cycle.
//
// Manager is the single owner of the render guard and both caches. HTTP
// handlers call Menu and Video, the scheduler calls RunDaily and the CLI calls
// RenderNow and Status. Every path that acquires the guard releases it on
// return, including engine failures.
package workflow
