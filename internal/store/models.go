package store

import (
	"errors"
	"time"
)

// Sentinel errors returned by conditional writes. Callers map these into
// their own error types with errors.Is.
var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyClosed means the entry exists but its end time is already set.
	ErrAlreadyClosed = errors.New("entry already closed")
	// ErrOpenEntryExists means the user already has an entry with no end time.
	ErrOpenEntryExists = errors.New("open entry already exists")
)

type Task struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TimeEntry struct {
	ID        int64
	UserID    int64
	TaskID    *int64 // nil after the referenced task was deleted
	StartTime time.Time
	EndTime   *time.Time
	Duration  int64 // seconds, authoritative once the entry is closed
	CreatedAt time.Time
}

// Open reports whether the entry represents a running session.
func (e *TimeEntry) Open() bool {
	return e.EndTime == nil
}

// EntryFilter is used to filter time entries in queries. From/To bound the
// start time as a half-open range [From, To).
type EntryFilter struct {
	UserID int64
	TaskID *int64
	From   *time.Time
	To     *time.Time
	Limit  int
}

// TaskTimes holds per-task worked seconds for the current day and month.
type TaskTimes struct {
	Daily   int64
	Monthly int64
}

// DayTotal is worked seconds aggregated per local calendar day.
type DayTotal struct {
	Date         string
	TotalSeconds int64
	EntryCount   int
}
