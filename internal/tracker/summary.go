package tracker

import (
	"time"

	"github.com/sadopc/worklog/internal/store"
)

// TaskSeconds computes per-task today/month worked seconds by scanning an
// entry snapshot client-side. It applies the same windowing rule as
// SecondsInWindow, filtered to one task.
func TaskSeconds(entries []store.TimeEntry, taskID int64, ref time.Time) store.TaskTimes {
	windowEnd := ref.Add(time.Second)
	dayStart := DayStart(ref)
	monthStart := MonthStart(ref)

	var scoped []store.TimeEntry
	for _, e := range entries {
		if e.TaskID != nil && *e.TaskID == taskID {
			scoped = append(scoped, e)
		}
	}

	return store.TaskTimes{
		Daily:   SecondsInWindow(scoped, dayStart, windowEnd, ref),
		Monthly: SecondsInWindow(scoped, monthStart, windowEnd, ref),
	}
}

// FetchTaskSeconds delegates the per-task rollup to the store's aggregation.
// A failure degrades to zeros instead of propagating: a missing per-task
// number must not break the task list around it.
func FetchTaskSeconds(gw Gateway, taskID, userID int64, ref time.Time) store.TaskTimes {
	tt, err := gw.TaskSummary(taskID, userID, DayStart(ref), MonthStart(ref), ref)
	if err != nil {
		return store.TaskTimes{}
	}
	return tt
}
