package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	HourlyRate float64     `json:"hourly_rate"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          int64  `json:"id"`
	Task        string `json:"task"`
	TaskID      *int64 `json:"task_id,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Earnings    int64  `json:"earnings"`
}

// ToJSON writes raw entries with per-entry earnings at the given rate.
func ToJSON(entries []store.TimeEntry, tasks map[int64]*store.Task, rate float64, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		HourlyRate: rate,
		Count:      len(entries),
	}

	for _, e := range entries {
		endStr := ""
		if e.EndTime != nil {
			endStr = e.EndTime.Local().Format(time.RFC3339)
		}

		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			Task:        taskName(tasks, e.TaskID),
			TaskID:      e.TaskID,
			StartTime:   e.StartTime.Local().Format(time.RFC3339),
			EndTime:     endStr,
			DurationSec: e.Duration,
			Duration:    formatDuration(e.Duration),
			Earnings:    tracker.Earnings(e.Duration, rate),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
