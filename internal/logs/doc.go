// Package logs reads the daemon log file for `ruokalista logs`: the last N
// lines, then optionally new lines as they are appended. A file that shrinks
// between polls is treated as rotated and read again from the start.
package logs
