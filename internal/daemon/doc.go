// Package daemon runs the long-lived ruokalista process.
//
// It takes the instance lock (flock), binds the HTTP listener, and runs the
// API server and the daily scheduler as services of one suture supervisor so a
// crashed service restarts with backoff instead of taking the process down.
// Request handlers stay thin: every cache and render decision is delegated to
// workflow.Manager.
//
// Routes: / (embedded docs), /api and /cors (menu JSON), /video (today's
// artifact, per-IP rate limited), /healthz and /metrics.
package daemon
