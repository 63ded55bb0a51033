// Package artifacts names, finds and cleans up rendered menu videos.
//
// Every file in the output directory is addressed by day key. Cleanup always
// compares against the live day key at delete time rather than a snapshot.
package artifacts
