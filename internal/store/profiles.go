package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// HourlyRate returns the user's configured rate, or 0 when none was ever set.
// A missing rate is not an error; earnings simply compute to zero.
func (s *Store) HourlyRate(userID int64) (float64, error) {
	var rate float64
	err := s.db.QueryRow(`SELECT hourly_rate FROM profiles WHERE user_id = ?`, userID).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get hourly rate: %w", err)
	}
	return rate, nil
}

func (s *Store) SetHourlyRate(userID int64, rate float64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO profiles (user_id, hourly_rate, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET hourly_rate = excluded.hourly_rate, updated_at = excluded.updated_at`,
		userID, rate, now,
	)
	if err != nil {
		return fmt.Errorf("set hourly rate: %w", err)
	}
	return nil
}
