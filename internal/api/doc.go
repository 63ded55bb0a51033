// Package api defines wire-format types and converters for the HTTP layer and
// the shared workflows behind the one-shot CLI commands.
//
// # Key Types
//
// MenuResponse: the GET /api body, shaped like the original public service
// (status_code, time_now, data.menu.food columns, data.menu_today.food).
//
// WorkflowStatus / HealthResponse: cache and render diagnostics for /healthz
// and `ruokalista cache status`.
//
// Runtime: the wired store, fetcher, caches, renderer and workflow manager.
//
// # Design Notes
//
// Menu payload keys are snake_case because existing display clients read
// them; status payloads use camelCase like the rest of the daemon API.
// today_date_full uses nominative Finnish month names and a 12-hour clock.
package api
