package tracker

import (
	"time"

	"github.com/sadopc/worklog/internal/store"
)

// Gateway is the store contract the engine depends on. *store.Store
// implements it; tests substitute fakes to inject failures.
//
// Mutations are request/response pairs with explicit outcomes. Conditional
// writes signal broken preconditions with store.ErrNotFound,
// store.ErrAlreadyClosed and store.ErrOpenEntryExists.
type Gateway interface {
	CreateEntry(userID, taskID int64, start time.Time) (*store.TimeEntry, error)
	CloseEntry(entryID int64, end time.Time, durationSeconds int64) error
	FindOpenEntry(userID int64) (*store.TimeEntry, error)
	ListEntries(f store.EntryFilter) ([]store.TimeEntry, error)
	InsertClosedEntry(userID, taskID int64, start, end time.Time, durationSeconds int64) (*store.TimeEntry, error)
	UpdateEntry(entryID, taskID int64, start, end time.Time, durationSeconds int64) error
	DeleteEntry(entryID int64) error
	HourlyRate(userID int64) (float64, error)
	TaskSummary(taskID, userID int64, dayStart, monthStart, ref time.Time) (store.TaskTimes, error)
}

// AddEntry records a manually added historical entry. Duration is always
// recomputed from start/end here, never accepted from the caller.
func AddEntry(gw Gateway, userID, taskID int64, start, end time.Time) (*store.TimeEntry, error) {
	if err := validateEdit(taskID, start, end); err != nil {
		return nil, err
	}
	e, err := gw.InsertClosedEntry(userID, taskID, start, end, DurationSeconds(start, end))
	if err != nil {
		return nil, &StoreError{Op: "add entry", Err: err}
	}
	return e, nil
}

// EditEntry rewrites task, start and end of an existing entry, recomputing
// the duration since start and end can be edited independently.
func EditEntry(gw Gateway, entryID, taskID int64, start, end time.Time) error {
	if err := validateEdit(taskID, start, end); err != nil {
		return err
	}
	err := gw.UpdateEntry(entryID, taskID, start, end, DurationSeconds(start, end))
	if err != nil {
		return &StoreError{Op: "edit entry", Err: err}
	}
	return nil
}

func validateEdit(taskID int64, start, end time.Time) error {
	if taskID == 0 {
		return &ValidationError{Reason: "no task selected"}
	}
	if start.IsZero() || end.IsZero() {
		return &ValidationError{Reason: "start and end are required"}
	}
	if end.Before(start) {
		return &ValidationError{Reason: "end before start"}
	}
	return nil
}
