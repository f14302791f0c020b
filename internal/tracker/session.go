package tracker

import (
	"errors"
	"time"

	"github.com/sadopc/worklog/internal/store"
)

// State of the session controller.
type State int

const (
	StateIdle State = iota
	StateRunning
)

// Controller owns the start/stop state machine for a single user's work
// session. It is the sole writer of the open-entry invariant within this
// client; the storage layer backs it up with a uniqueness guard.
type Controller struct {
	gw     Gateway
	userID int64
	now    func() time.Time

	state     State
	entryID   int64
	taskID    int64
	startTime time.Time
}

func NewController(gw Gateway, userID int64) *Controller {
	return &Controller{
		gw:     gw,
		userID: userID,
		now:    time.Now,
	}
}

// Recover synchronizes the controller with the store: if an open entry
// exists (left behind by a previous process), the controller resumes it;
// otherwise it goes Idle. Safe to call at any time.
func (c *Controller) Recover() error {
	open, err := c.gw.FindOpenEntry(c.userID)
	if err != nil {
		return &StoreError{Op: "recover", Err: err}
	}
	if open == nil {
		c.reset()
		return nil
	}
	c.state = StateRunning
	c.entryID = open.ID
	c.taskID = 0
	if open.TaskID != nil {
		c.taskID = *open.TaskID
	}
	c.startTime = open.StartTime
	return nil
}

// Start begins a session for the given task. Valid only when Idle.
func (c *Controller) Start(taskID int64) (*store.TimeEntry, error) {
	if c.state != StateIdle {
		return nil, &ConflictError{Op: "start", Reason: "session already running"}
	}
	if taskID == 0 {
		return nil, &ValidationError{Reason: "no task selected"}
	}

	entry, err := c.gw.CreateEntry(c.userID, taskID, c.now())
	if errors.Is(err, store.ErrOpenEntryExists) {
		// Another client won the race; adopt the entry that is actually open.
		if rerr := c.Recover(); rerr != nil {
			return nil, rerr
		}
		return nil, &ConflictError{Op: "start", Reason: "an open entry already exists"}
	}
	if err != nil {
		return nil, &StoreError{Op: "start", Err: err}
	}

	c.state = StateRunning
	c.entryID = entry.ID
	c.taskID = taskID
	c.startTime = entry.StartTime
	return entry, nil
}

// Stop closes the running session. Duration is computed from the
// controller's in-memory start time, rounded half-up to whole seconds.
// A StoreError leaves the session Running so the stop can be retried; a
// ConflictError means the entry was closed or deleted externally, after
// which the controller has resynchronized against the store.
func (c *Controller) Stop() (*store.TimeEntry, error) {
	if c.state != StateRunning {
		return nil, &ConflictError{Op: "stop", Reason: "no session running"}
	}

	end := c.now()
	dur := DurationSeconds(c.startTime, end)

	err := c.gw.CloseEntry(c.entryID, end, dur)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrAlreadyClosed) {
		reason := err.Error()
		if rerr := c.Recover(); rerr != nil {
			return nil, rerr
		}
		return nil, &ConflictError{Op: "stop", Reason: reason}
	}
	if err != nil {
		return nil, &StoreError{Op: "stop", Err: err}
	}

	taskID := c.taskID
	stopped := &store.TimeEntry{
		ID:        c.entryID,
		UserID:    c.userID,
		TaskID:    &taskID,
		StartTime: c.startTime,
		EndTime:   &end,
		Duration:  dur,
	}
	c.reset()
	return stopped, nil
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.entryID = 0
	c.taskID = 0
	c.startTime = time.Time{}
}

func (c *Controller) State() State   { return c.state }
func (c *Controller) Running() bool  { return c.state == StateRunning }
func (c *Controller) EntryID() int64 { return c.entryID }
func (c *Controller) TaskID() int64  { return c.taskID }

func (c *Controller) StartedAt() time.Time { return c.startTime }

// Elapsed is always derived from wall clock minus start time, never an
// accumulated tick count, so it survives process sleeps without drift.
func (c *Controller) Elapsed() time.Duration {
	if c.state != StateRunning {
		return 0
	}
	d := c.now().Sub(c.startTime)
	if d < 0 {
		return 0
	}
	return d
}

// DurationSeconds rounds an interval to whole seconds, half-up.
func DurationSeconds(start, end time.Time) int64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d.Round(time.Second) / time.Second)
}
