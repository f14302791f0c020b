package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/worklog/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTasks
	viewEntries
	viewProfile
)

var viewNames = []string{"Dashboard", "Tasks", "Entries", "Profile"}

// --- Messages ---

type sessionStartedMsg struct {
	entry *store.TimeEntry
}

type sessionStoppedMsg struct {
	entry *store.TimeEntry
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type rateSavedMsg struct{}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatShort(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	return fmt.Sprintf("%dh %dm", h, m)
}

func formatMoney(amount int64) string {
	return fmt.Sprintf("%d", amount)
}

// liveSeconds is an entry's recorded duration, or its elapsed whole seconds
// at now while it is still running, matching the aggregation paths.
func liveSeconds(e *store.TimeEntry, now time.Time) int64 {
	if !e.Open() {
		return e.Duration
	}
	if d := now.Unix() - e.StartTime.Unix(); d > 0 {
		return d
	}
	return 0
}

func errStatus(err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
}
