package api

import (
	"net/http"
	"time"

	"ruokalista/internal/artifacts"
	"ruokalista/internal/menu"
	"ruokalista/internal/workflow"
)

// FromRecord builds the GET /api payload for rec as seen at now.
func FromRecord(now time.Time, rec menu.Record, sourceURL string) MenuResponse {
	slot := menu.TodaySlot(now)
	today := TodayFood{
		NumDate:       slot,
		TodayDateFull: FormatFullDate(now),
		TodayDate:     FormatShortDate(now),
		CurrentWeek:   WeekNumber(now),
	}
	if day, ok := rec.Today(slot); ok {
		today.Date = nonEmpty(day.Label)
		today.Normal = nonEmpty(day.MainMeal)
		today.Vege = nonEmpty(day.VegetarianMeal)
	}
	return MenuResponse{
		StatusCode:    http.StatusOK,
		StatusMessage: http.StatusText(http.StatusOK),
		TimeNow:       now.UnixMilli(),
		URL:           sourceURL,
		Data: MenuData{
			Menu:      WeekMenu{Food: rec.Columns()},
			MenuToday: TodayMenu{Food: today},
		},
	}
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// FromArtifact converts a cached artifact to its API representation.
func FromArtifact(art artifacts.Artifact) ArtifactInfo {
	info := ArtifactInfo{
		Key:  art.Key.String(),
		Path: art.Path,
		Size: art.Size,
	}
	if !art.ModTime.IsZero() {
		info.ModTime = art.ModTime.UTC().Format(dateTimeFormat)
	}
	return info
}

// FromStatusSummary converts workflow diagnostics to their API representation.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Today:         summary.Today.String(),
		Slot:          summary.Slot,
		Rendering:     summary.Rendering,
		DataCached:    summary.DataCached,
		DataStale:     summary.DataStale,
		Days:          summary.Days,
		PersistedKeys: make([]string, 0, len(summary.PersistedKeys)),
		Artifacts:     make([]ArtifactInfo, 0, len(summary.Artifacts)),
	}
	if summary.DataCached {
		status.DataKey = summary.DataKey.String()
	}
	for _, key := range summary.PersistedKeys {
		status.PersistedKeys = append(status.PersistedKeys, key.String())
	}
	for _, art := range summary.Artifacts {
		status.Artifacts = append(status.Artifacts, FromArtifact(art))
	}
	if run := summary.LastRun; !run.StartedAt.IsZero() {
		info := &RunInfo{
			StartedAt:  run.StartedAt.UTC().Format(dateTimeFormat),
			DurationMS: run.Duration.Milliseconds(),
			Key:        run.Key.String(),
			Changed:    run.Changed,
			Rendered:   run.Rendered,
			Skipped:    run.Skipped,
		}
		if run.Err != nil {
			info.Error = run.Err.Error()
		}
		status.LastRun = info
	}
	return status
}
