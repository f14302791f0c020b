package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/worklog/internal/store"
	"github.com/sadopc/worklog/internal/tracker"
)

// ToCSV writes raw entries with per-entry earnings at the given rate.
func ToCSV(entries []store.TimeEntry, tasks map[int64]*store.Task, rate float64, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Task", "Start", "End", "Duration (s)", "Duration", "Earnings"}); err != nil {
		return err
	}

	for _, e := range entries {
		endStr := ""
		if e.EndTime != nil {
			endStr = e.EndTime.Local().Format(time.RFC3339)
		}

		row := []string{
			fmt.Sprintf("%d", e.ID),
			taskName(tasks, e.TaskID),
			e.StartTime.Local().Format(time.RFC3339),
			endStr,
			fmt.Sprintf("%d", e.Duration),
			formatDuration(e.Duration),
			fmt.Sprintf("%d", tracker.Earnings(e.Duration, rate)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func taskName(tasks map[int64]*store.Task, id *int64) string {
	if id != nil {
		if t, ok := tasks[*id]; ok {
			return t.Name
		}
	}
	return "Unknown"
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
