package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateTask(t *testing.T, s *Store, userID int64, name string) *Task {
	t.Helper()
	task, err := s.CreateTask(userID, name, "")
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", name, err)
	}
	return task
}

func mustInsertClosed(t *testing.T, s *Store, userID, taskID int64, start, end time.Time) *TimeEntry {
	t.Helper()
	dur := int64(end.Sub(start) / time.Second)
	e, err := s.InsertClosedEntry(userID, taskID, start, end, dur)
	if err != nil {
		t.Fatalf("InsertClosedEntry: %v", err)
	}
	return e
}

func TestMigrationsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worklog.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	task := mustCreateTask(t, s, 1, "client work")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask after reopen: %v", err)
	}
	if got.Name != "client work" {
		t.Errorf("task name = %q, want %q", got.Name, "client work")
	}
}

func TestTaskCRUD(t *testing.T) {
	s := newTestStore(t)

	task := mustCreateTask(t, s, 1, "refactoring")
	if task.ID == 0 {
		t.Fatal("expected non-zero task id")
	}

	if err := s.UpdateTask(task.ID, "refactoring", "storage layer"); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Description != "storage layer" {
		t.Errorf("description = %q, want %q", got.Description, "storage layer")
	}

	mustCreateTask(t, s, 1, "meetings")
	mustCreateTask(t, s, 2, "other user")

	tasks, err := s.ListTasks(1)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("ListTasks(1) returned %d tasks, want 2", len(tasks))
	}

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := s.GetTask(task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTask(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTask(9999) = %v, want ErrNotFound", err)
	}
}

func TestCreateEntryRejectsSecondOpen(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, 1, "work")

	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	first, err := s.CreateEntry(1, task.ID, start)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if !first.Open() {
		t.Fatal("new entry should be open")
	}

	_, err = s.CreateEntry(1, task.ID, start.Add(time.Minute))
	if !errors.Is(err, ErrOpenEntryExists) {
		t.Fatalf("second CreateEntry = %v, want ErrOpenEntryExists", err)
	}

	// A different user is not affected by this user's open entry.
	if _, err := s.CreateEntry(2, task.ID, start); err != nil {
		t.Fatalf("CreateEntry for other user: %v", err)
	}
}

func TestCloseEntry(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, 1, "work")

	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	entry, err := s.CreateEntry(1, task.ID, start)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	end := start.Add(90 * time.Minute)
	if err := s.CloseEntry(entry.ID, end, 5400); err != nil {
		t.Fatalf("CloseEntry: %v", err)
	}

	got, err := s.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Open() {
		t.Fatal("entry still open after close")
	}
	if got.Duration != 5400 {
		t.Errorf("duration = %d, want 5400", got.Duration)
	}
	if !got.EndTime.Equal(end) {
		t.Errorf("end time = %v, want %v", got.EndTime, end)
	}

	if err := s.CloseEntry(entry.ID, end, 5400); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("second close = %v, want ErrAlreadyClosed", err)
	}
	if err := s.CloseEntry(9999, end, 5400); !errors.Is(err, ErrNotFound) {
		t.Errorf("close missing = %v, want ErrNotFound", err)
	}
}

func TestFindOpenEntry(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, 1, "work")

	open, err := s.FindOpenEntry(1)
	if err != nil {
		t.Fatalf("FindOpenEntry: %v", err)
	}
	if open != nil {
		t.Fatalf("expected no open entry, got %+v", open)
	}

	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	created, err := s.CreateEntry(1, task.ID, start)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	open, err = s.FindOpenEntry(1)
	if err != nil {
		t.Fatalf("FindOpenEntry: %v", err)
	}
	if open == nil || open.ID != created.ID {
		t.Fatalf("FindOpenEntry = %+v, want entry %d", open, created.ID)
	}
	if !open.StartTime.Equal(start) {
		t.Errorf("start time = %v, want %v", open.StartTime, start)
	}
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	s := newTestStore(t)
	taskA := mustCreateTask(t, s, 1, "a")
	taskB := mustCreateTask(t, s, 1, "b")

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entry := mustInsertClosed(t, s, 1, taskA.ID, start, start.Add(time.Hour))

	newStart := start.Add(30 * time.Minute)
	newEnd := newStart.Add(2 * time.Hour)
	if err := s.UpdateEntry(entry.ID, taskB.ID, newStart, newEnd, 7200); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	got, err := s.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.TaskID == nil || *got.TaskID != taskB.ID {
		t.Errorf("task id = %v, want %d", got.TaskID, taskB.ID)
	}
	if got.Duration != 7200 {
		t.Errorf("duration = %d, want 7200", got.Duration)
	}
	if !got.StartTime.Equal(newStart) {
		t.Errorf("start = %v, want %v", got.StartTime, newStart)
	}

	if err := s.UpdateEntry(9999, taskB.ID, newStart, newEnd, 7200); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing = %v, want ErrNotFound", err)
	}

	if err := s.DeleteEntry(entry.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := s.DeleteEntry(entry.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete twice = %v, want ErrNotFound", err)
	}
}

func TestListEntriesFilters(t *testing.T) {
	s := newTestStore(t)
	taskA := mustCreateTask(t, s, 1, "a")
	taskB := mustCreateTask(t, s, 1, "b")

	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 10, 0, 0, 0, time.UTC)
	}
	mustInsertClosed(t, s, 1, taskA.ID, day(1), day(1).Add(time.Hour))
	mustInsertClosed(t, s, 1, taskA.ID, day(10), day(10).Add(time.Hour))
	mustInsertClosed(t, s, 1, taskB.ID, day(20), day(20).Add(time.Hour))
	mustInsertClosed(t, s, 2, taskA.ID, day(10), day(10).Add(time.Hour))

	all, err := s.ListEntries(EntryFilter{UserID: 1})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d entries, want 3", len(all))
	}
	// Newest first.
	if !all[0].StartTime.Equal(day(20)) {
		t.Errorf("first entry starts %v, want %v", all[0].StartTime, day(20))
	}

	from := day(5)
	to := day(20) // half-open: the day-20 entry is excluded
	ranged, err := s.ListEntries(EntryFilter{UserID: 1, From: &from, To: &to})
	if err != nil {
		t.Fatalf("ListEntries ranged: %v", err)
	}
	if len(ranged) != 1 {
		t.Fatalf("ranged = %d entries, want 1", len(ranged))
	}
	if !ranged[0].StartTime.Equal(day(10)) {
		t.Errorf("ranged entry starts %v, want %v", ranged[0].StartTime, day(10))
	}

	byTask, err := s.ListEntries(EntryFilter{UserID: 1, TaskID: &taskB.ID})
	if err != nil {
		t.Fatalf("ListEntries by task: %v", err)
	}
	if len(byTask) != 1 {
		t.Fatalf("by task = %d entries, want 1", len(byTask))
	}

	limited, err := s.ListEntries(EntryFilter{UserID: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListEntries limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited = %d entries, want 2", len(limited))
	}
}

func TestTaskSummary(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, 1, "work")
	other := mustCreateTask(t, s, 1, "other")

	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	dayStart := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Closed entry today: counts in both windows.
	mustInsertClosed(t, s, 1, task.ID, ref.Add(-3*time.Hour), ref.Add(-2*time.Hour))
	// Closed entry earlier this month: month only.
	mustInsertClosed(t, s, 1, task.ID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC))
	// Previous month: excluded entirely.
	mustInsertClosed(t, s, 1, task.ID, time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC))
	// Different task: excluded.
	mustInsertClosed(t, s, 1, other.ID, ref.Add(-time.Hour), ref)
	// Open entry started an hour ago: contributes live elapsed seconds at ref.
	if _, err := s.CreateEntry(1, task.ID, ref.Add(-time.Hour)); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	tt, err := s.TaskSummary(task.ID, 1, dayStart, monthStart, ref)
	if err != nil {
		t.Fatalf("TaskSummary: %v", err)
	}
	if want := int64(3600 + 3600); tt.Daily != want {
		t.Errorf("daily = %d, want %d", tt.Daily, want)
	}
	if want := int64(3600 + 1800 + 3600); tt.Monthly != want {
		t.Errorf("monthly = %d, want %d", tt.Monthly, want)
	}
}

func TestTaskSummaryNoEntries(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, 1, "idle")

	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	tt, err := s.TaskSummary(task.ID, 1,
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ref)
	if err != nil {
		t.Fatalf("TaskSummary: %v", err)
	}
	if tt.Daily != 0 || tt.Monthly != 0 {
		t.Errorf("summary = %+v, want zeros", tt)
	}
}

func TestDeleteTaskDetachesEntries(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, 1, "doomed")

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entry := mustInsertClosed(t, s, 1, task.ID, start, start.Add(time.Hour))

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	got, err := s.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.TaskID != nil {
		t.Errorf("task id after task delete = %v, want nil", got.TaskID)
	}
	if got.Duration != 3600 {
		t.Errorf("duration changed on task delete: %d", got.Duration)
	}
}

func TestHourlyRate(t *testing.T) {
	s := newTestStore(t)

	rate, err := s.HourlyRate(1)
	if err != nil {
		t.Fatalf("HourlyRate: %v", err)
	}
	if rate != 0 {
		t.Errorf("default rate = %v, want 0", rate)
	}

	if err := s.SetHourlyRate(1, 85.5); err != nil {
		t.Fatalf("SetHourlyRate: %v", err)
	}
	rate, err = s.HourlyRate(1)
	if err != nil {
		t.Fatalf("HourlyRate: %v", err)
	}
	if rate != 85.5 {
		t.Errorf("rate = %v, want 85.5", rate)
	}

	// Upsert overwrites.
	if err := s.SetHourlyRate(1, 90); err != nil {
		t.Fatalf("SetHourlyRate again: %v", err)
	}
	rate, _ = s.HourlyRate(1)
	if rate != 90 {
		t.Errorf("rate after update = %v, want 90", rate)
	}
}
