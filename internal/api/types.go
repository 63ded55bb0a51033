package api

import "ruokalista/internal/menu"

// dateTimeFormat is used for RFC3339 timestamps in status payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// MenuResponse is the body of GET /api. Field names follow the original
// public service so existing display clients keep working.
type MenuResponse struct {
	StatusCode    int      `json:"status_code"`
	StatusMessage string   `json:"status_message"`
	TimeNow       int64    `json:"time_now"`
	URL           string   `json:"url"`
	Data          MenuData `json:"data"`
}

// MenuData groups the week listing and today's entry.
type MenuData struct {
	Menu      WeekMenu  `json:"menu"`
	MenuToday TodayMenu `json:"menu_today"`
}

// WeekMenu wraps the column-oriented week listing.
type WeekMenu struct {
	Food menu.Columns `json:"food"`
}

// TodayMenu wraps today's entry.
type TodayMenu struct {
	Food TodayFood `json:"food"`
}

// TodayFood describes today's slot. Date, Normal and Vege are null when the
// listing has no entry for the slot.
type TodayFood struct {
	NumDate       int     `json:"num_date"`
	TodayDateFull string  `json:"today_date_full"`
	TodayDate     string  `json:"today_date"`
	CurrentWeek   string  `json:"current_week"`
	Date          *string `json:"date"`
	Normal        *string `json:"normal"`
	Vege          *string `json:"vege"`
}

// ErrorResponse is returned for failed artifact requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RenderingResponse is returned with 202 while a render is running.
type RenderingResponse struct {
	Status string `json:"status"`
}

// ArtifactInfo describes a cached artifact.
type ArtifactInfo struct {
	Key     string `json:"key"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime string `json:"modTime,omitempty"`
}

// RunInfo summarizes the most recent scheduled cycle.
type RunInfo struct {
	StartedAt  string `json:"startedAt,omitempty"`
	DurationMS int64  `json:"durationMs"`
	Key        string `json:"key,omitempty"`
	Changed    bool   `json:"changed"`
	Rendered   bool   `json:"rendered"`
	Skipped    bool   `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

// WorkflowStatus summarizes cache and render state.
type WorkflowStatus struct {
	Today         string         `json:"today"`
	Slot          int            `json:"slot"`
	Rendering     bool           `json:"rendering"`
	DataCached    bool           `json:"dataCached"`
	DataKey       string         `json:"dataKey,omitempty"`
	DataStale     bool           `json:"dataStale"`
	Days          int            `json:"days"`
	PersistedKeys []string       `json:"persistedKeys"`
	Artifacts     []ArtifactInfo `json:"artifacts"`
	LastRun       *RunInfo       `json:"lastRun,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string         `json:"status"`
	Breaker     string         `json:"breaker"`
	NextRun     string         `json:"nextRun,omitempty"`
	Workflow    WorkflowStatus `json:"workflow"`
	StartedAt   string         `json:"startedAt"`
	UptimeSecs  int64          `json:"uptimeSeconds"`
	StorageKind string         `json:"storage"`
}
