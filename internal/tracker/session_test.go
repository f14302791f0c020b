package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/worklog/internal/store"
)

// fakeGateway lets tests inject failures the real store would only produce
// under races or IO errors.
type fakeGateway struct {
	open      *store.TimeEntry
	createErr error
	closeErr  error
	findErr   error

	summary    store.TaskTimes
	summaryErr error

	nextID    int64
	closedID  int64
	closedDur int64
}

func (f *fakeGateway) CreateEntry(userID, taskID int64, start time.Time) (*store.TimeEntry, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	tid := taskID
	e := &store.TimeEntry{ID: f.nextID, UserID: userID, TaskID: &tid, StartTime: start}
	f.open = e
	return e, nil
}

func (f *fakeGateway) CloseEntry(entryID int64, end time.Time, durationSeconds int64) error {
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closedID = entryID
	f.closedDur = durationSeconds
	f.open = nil
	return nil
}

func (f *fakeGateway) FindOpenEntry(userID int64) (*store.TimeEntry, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.open, nil
}

func (f *fakeGateway) ListEntries(filter store.EntryFilter) ([]store.TimeEntry, error) {
	return nil, nil
}

func (f *fakeGateway) InsertClosedEntry(userID, taskID int64, start, end time.Time, durationSeconds int64) (*store.TimeEntry, error) {
	f.nextID++
	tid := taskID
	return &store.TimeEntry{ID: f.nextID, UserID: userID, TaskID: &tid,
		StartTime: start, EndTime: &end, Duration: durationSeconds}, nil
}

func (f *fakeGateway) UpdateEntry(entryID, taskID int64, start, end time.Time, durationSeconds int64) error {
	return nil
}

func (f *fakeGateway) DeleteEntry(entryID int64) error { return nil }

func (f *fakeGateway) HourlyRate(userID int64) (float64, error) { return 0, nil }

func (f *fakeGateway) TaskSummary(taskID, userID int64, dayStart, monthStart, ref time.Time) (store.TaskTimes, error) {
	if f.summaryErr != nil {
		return store.TaskTimes{}, f.summaryErr
	}
	return f.summary, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStartStopRoundTrip(t *testing.T) {
	s := newTestStore(t)
	task, err := s.CreateTask(1, "work", "")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	clock := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	c := NewController(s, 1)
	c.now = func() time.Time { return clock }

	entry, err := c.Start(task.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.Running() {
		t.Fatal("controller not Running after Start")
	}
	if c.EntryID() != entry.ID || c.TaskID() != task.ID {
		t.Errorf("controller tracks entry %d task %d, want %d/%d",
			c.EntryID(), c.TaskID(), entry.ID, task.ID)
	}

	clock = clock.Add(90 * time.Minute)
	stopped, err := c.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.State() != StateIdle {
		t.Fatal("controller not Idle after Stop")
	}
	if stopped.Duration != 5400 {
		t.Errorf("duration = %d, want 5400", stopped.Duration)
	}

	got, err := s.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Open() || got.Duration != 5400 {
		t.Errorf("persisted entry open=%v duration=%d, want closed/5400", got.Open(), got.Duration)
	}
}

func TestStartValidation(t *testing.T) {
	c := NewController(&fakeGateway{}, 1)

	_, err := c.Start(0)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Start(0) = %v, want ValidationError", err)
	}
	if c.Running() {
		t.Error("controller Running after rejected Start")
	}
}

func TestStartWhileRunningConflicts(t *testing.T) {
	c := NewController(&fakeGateway{}, 1)
	if _, err := c.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := c.Start(2)
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("second Start = %v, want ConflictError", err)
	}
	if c.TaskID() != 1 {
		t.Errorf("task id changed to %d after rejected Start", c.TaskID())
	}
}

func TestStopWhileIdleConflicts(t *testing.T) {
	c := NewController(&fakeGateway{}, 1)
	_, err := c.Stop()
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("Stop while Idle = %v, want ConflictError", err)
	}
}

func TestStartAdoptsRacedOpenEntry(t *testing.T) {
	raced := &store.TimeEntry{ID: 42, UserID: 1,
		StartTime: time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)}
	gw := &fakeGateway{createErr: store.ErrOpenEntryExists, open: raced}

	c := NewController(gw, 1)
	_, err := c.Start(7)
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("Start = %v, want ConflictError", err)
	}
	// The controller adopted the entry another client opened.
	if !c.Running() || c.EntryID() != 42 {
		t.Errorf("state=%v entry=%d, want Running/42", c.State(), c.EntryID())
	}
}

func TestStopStoreErrorLeavesRunning(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw, 1)
	if _, err := c.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	gw.closeErr = errors.New("disk full")
	_, err := c.Stop()
	var serr *StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("Stop = %v, want StoreError", err)
	}
	if !c.Running() {
		t.Fatal("controller must stay Running after a store failure so Stop can be retried")
	}

	gw.closeErr = nil
	if _, err := c.Stop(); err != nil {
		t.Fatalf("retried Stop: %v", err)
	}
	if c.Running() {
		t.Error("controller still Running after successful retry")
	}
}

func TestStopResyncsAfterExternalClose(t *testing.T) {
	gw := &fakeGateway{}
	c := NewController(gw, 1)
	if _, err := c.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Another client closed the entry; our conditional close finds it gone.
	gw.closeErr = store.ErrAlreadyClosed
	gw.open = nil

	_, err := c.Stop()
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("Stop = %v, want ConflictError", err)
	}
	if c.State() != StateIdle {
		t.Error("controller should be Idle after resync found no open entry")
	}
}

func TestRecover(t *testing.T) {
	s := newTestStore(t)
	task, err := s.CreateTask(1, "work", "")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	c := NewController(s, 1)
	if err := c.Recover(); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if c.Running() {
		t.Fatal("Recover with empty store should leave controller Idle")
	}

	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	open, err := s.CreateEntry(1, task.ID, start)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	// A fresh controller, as after a process restart.
	c2 := NewController(s, 1)
	if err := c2.Recover(); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if !c2.Running() {
		t.Fatal("Recover should resume the open entry")
	}
	if c2.EntryID() != open.ID || !c2.StartedAt().Equal(start) {
		t.Errorf("recovered entry %d at %v, want %d at %v",
			c2.EntryID(), c2.StartedAt(), open.ID, start)
	}
}

func TestElapsedDerivedFromWallClock(t *testing.T) {
	gw := &fakeGateway{}
	clock := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	c := NewController(gw, 1)
	c.now = func() time.Time { return clock }

	if c.Elapsed() != 0 {
		t.Errorf("Elapsed while Idle = %v, want 0", c.Elapsed())
	}

	if _, err := c.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Jump the clock forward as if the machine slept; elapsed must follow
	// wall time, not accumulated ticks.
	clock = clock.Add(3 * time.Hour)
	if got := c.Elapsed(); got != 3*time.Hour {
		t.Errorf("Elapsed = %v, want 3h", got)
	}
}

func TestDurationSeconds(t *testing.T) {
	base := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		d    time.Duration
		want int64
	}{
		{"exact", 90 * time.Minute, 5400},
		{"rounds down", 1400 * time.Millisecond, 1},
		{"half rounds up", 1500 * time.Millisecond, 2},
		{"sub-second half", 500 * time.Millisecond, 1},
		{"negative clamps", -time.Minute, 0},
		{"zero", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DurationSeconds(base, base.Add(tc.d)); got != tc.want {
				t.Errorf("DurationSeconds(%v) = %d, want %d", tc.d, got, tc.want)
			}
		})
	}
}

func TestAddEntryRecomputesDuration(t *testing.T) {
	gw := &fakeGateway{}
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	e, err := AddEntry(gw, 1, 5, start, end)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if e.Duration != 7200 {
		t.Errorf("duration = %d, want 7200", e.Duration)
	}

	var verr *ValidationError
	if _, err := AddEntry(gw, 1, 0, start, end); !errors.As(err, &verr) {
		t.Errorf("AddEntry without task = %v, want ValidationError", err)
	}
	if _, err := AddEntry(gw, 1, 5, end, start); !errors.As(err, &verr) {
		t.Errorf("AddEntry with end before start = %v, want ValidationError", err)
	}
	if _, err := AddEntry(gw, 1, 5, time.Time{}, end); !errors.As(err, &verr) {
		t.Errorf("AddEntry with zero start = %v, want ValidationError", err)
	}
}
