package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const entryColumns = `id, user_id, task_id, start_time, end_time, duration, created_at`

// CreateEntry inserts an open entry (no end time) starting the given session.
// Returns ErrOpenEntryExists when the user already has an open entry; the
// partial unique index on open entries rejects the insert even when another
// client raced us.
func (s *Store) CreateEntry(userID, taskID int64, start time.Time) (*TimeEntry, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO time_entries (user_id, task_id, start_time, created_at) VALUES (?, ?, ?, ?)`,
		userID, taskID, start.UTC().Format(time.RFC3339), now,
	)
	if err != nil {
		if open, ferr := s.FindOpenEntry(userID); ferr == nil && open != nil {
			return nil, fmt.Errorf("create entry: %w", ErrOpenEntryExists)
		}
		return nil, fmt.Errorf("create entry: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEntry(id)
}

// CloseEntry sets end time and duration on an entry that is still open.
// Returns ErrAlreadyClosed or ErrNotFound when the precondition no longer
// holds, so callers can resync instead of blindly retrying.
func (s *Store) CloseEntry(id int64, end time.Time, durationSeconds int64) error {
	res, err := s.db.Exec(
		`UPDATE time_entries SET end_time = ?, duration = ? WHERE id = ? AND end_time IS NULL`,
		end.UTC().Format(time.RFC3339), durationSeconds, id,
	)
	if err != nil {
		return fmt.Errorf("close entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := s.db.QueryRow(`SELECT 1 FROM time_entries WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("close entry %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("close entry %d: %w", id, err)
		}
		return fmt.Errorf("close entry %d: %w", id, ErrAlreadyClosed)
	}
	return nil
}

// FindOpenEntry returns the user's open entry, or nil when none exists.
func (s *Store) FindOpenEntry(userID int64) (*TimeEntry, error) {
	row := s.db.QueryRow(
		`SELECT `+entryColumns+` FROM time_entries
		 WHERE user_id = ? AND end_time IS NULL ORDER BY start_time DESC LIMIT 1`, userID,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open entry: %w", err)
	}
	return e, nil
}

func (s *Store) GetEntry(id int64) (*TimeEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

// InsertClosedEntry records a manually added historical entry. The duration
// is computed by the caller from start/end, never taken from user input.
func (s *Store) InsertClosedEntry(userID, taskID int64, start, end time.Time, durationSeconds int64) (*TimeEntry, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO time_entries (user_id, task_id, start_time, end_time, duration, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, taskID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), durationSeconds, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEntry(id)
}

// UpdateEntry rewrites task, start and end of a closed entry together with
// its recomputed duration.
func (s *Store) UpdateEntry(id, taskID int64, start, end time.Time, durationSeconds int64) error {
	res, err := s.db.Exec(
		`UPDATE time_entries SET task_id = ?, start_time = ?, end_time = ?, duration = ? WHERE id = ?`,
		taskID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), durationSeconds, id,
	)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update entry %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteEntry(id int64) error {
	res, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete entry %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) ListEntries(f EntryFilter) ([]TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE user_id = ?`
	args := []any{f.UserID}

	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY start_time DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// TaskSummary aggregates per-task worked seconds server-side. An open entry
// contributes its elapsed seconds at ref, computed with the same whole-second
// arithmetic as the client-side scan so the two paths agree exactly.
func (s *Store) TaskSummary(taskID, userID int64, dayStart, monthStart, ref time.Time) (TaskTimes, error) {
	dayStr := dayStart.UTC().Format(time.RFC3339)
	monthStr := monthStart.UTC().Format(time.RFC3339)
	refStr := ref.UTC().Format(time.RFC3339)

	const q = `
	SELECT
		COALESCE(SUM(CASE WHEN start_time >= ?1 THEN
			CASE WHEN end_time IS NULL
				THEN MAX(0, strftime('%s', ?3) - strftime('%s', start_time))
				ELSE duration END
			ELSE 0 END), 0),
		COALESCE(SUM(
			CASE WHEN end_time IS NULL
				THEN MAX(0, strftime('%s', ?3) - strftime('%s', start_time))
				ELSE duration END), 0)
	FROM time_entries
	WHERE user_id = ?4 AND task_id = ?5
	  AND start_time >= ?2 AND start_time <= ?3`

	var tt TaskTimes
	err := s.db.QueryRow(q, dayStr, monthStr, refStr, userID, taskID).Scan(&tt.Daily, &tt.Monthly)
	if err != nil {
		return TaskTimes{}, fmt.Errorf("task summary %d: %w", taskID, err)
	}
	return tt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*TimeEntry, error) {
	e := &TimeEntry{}
	var startTime, createdAt string
	var endTime sql.NullString
	var taskID sql.NullInt64

	if err := row.Scan(&e.ID, &e.UserID, &taskID, &startTime, &endTime, &e.Duration, &createdAt); err != nil {
		return nil, err
	}
	if taskID.Valid {
		e.TaskID = &taskID.Int64
	}
	e.StartTime, _ = time.Parse(time.RFC3339, startTime)
	if endTime.Valid {
		t, _ := time.Parse(time.RFC3339, endTime.String)
		e.EndTime = &t
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}
