package tracker

import (
	"math"
	"time"

	"github.com/sadopc/worklog/internal/store"
)

// Totals is the single-shot aggregation result over an entry snapshot.
type Totals struct {
	TodaySeconds  int64
	TodayEarnings int64
	MonthSeconds  int64
	MonthEarnings int64
}

// DayStart returns midnight of the local calendar day containing t.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthStart returns the first instant of the local calendar month containing t.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// SecondsInWindow sums worked seconds of entries whose start time falls in
// [windowStart, windowEnd). Entries are bucketed by start time only: one
// that starts before midnight and ends after belongs entirely to the
// earlier day. An open entry contributes its live elapsed time at ref,
// in whole seconds, matching the store's SQL aggregation exactly.
func SecondsInWindow(entries []store.TimeEntry, windowStart, windowEnd, ref time.Time) int64 {
	var total int64
	for i := range entries {
		e := &entries[i]
		if e.StartTime.Before(windowStart) || !e.StartTime.Before(windowEnd) {
			continue
		}
		if !e.Open() {
			total += e.Duration
			continue
		}
		if live := ref.Unix() - e.StartTime.Unix(); live > 0 {
			total += live
		}
	}
	return total
}

// Aggregate computes today/month totals and month earnings from a snapshot
// of the month's entries and the current hourly rate. It is pure: the
// reference instant is injected, and the same snapshot and ref always
// produce the same result.
func Aggregate(entries []store.TimeEntry, rate float64, ref time.Time) Totals {
	windowEnd := ref.Add(time.Second)
	today := SecondsInWindow(entries, DayStart(ref), windowEnd, ref)
	month := SecondsInWindow(entries, MonthStart(ref), windowEnd, ref)
	return Totals{
		TodaySeconds:  today,
		TodayEarnings: Earnings(today, rate),
		MonthSeconds:  month,
		MonthEarnings: Earnings(month, rate),
	}
}

// DayTotals buckets closed entries into the given number of consecutive
// local calendar days ending at ref, oldest first. Day boundaries come from
// DayStart, so they follow the local calendar even when the UTC offset
// changes across the range. Open entries are skipped.
func DayTotals(entries []store.TimeEntry, days int, ref time.Time) []store.DayTotal {
	totals := make([]store.DayTotal, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := DayStart(ref).AddDate(0, 0, -i)
		next := day.AddDate(0, 0, 1)

		dt := store.DayTotal{Date: day.Format("2006-01-02")}
		for j := range entries {
			e := &entries[j]
			if e.Open() || e.StartTime.Before(day) || !e.StartTime.Before(next) {
				continue
			}
			dt.TotalSeconds += e.Duration
			dt.EntryCount++
		}
		totals = append(totals, dt)
	}
	return totals
}

// Earnings converts worked seconds at an hourly rate into whole currency
// units, rounded half-up. This is the only earnings rule in the program;
// every surface that shows money goes through it so the numbers agree.
// Out-of-domain input (no rate configured, nothing worked) yields zero.
func Earnings(seconds int64, rate float64) int64 {
	if seconds <= 0 || rate <= 0 {
		return 0
	}
	return int64(math.Round(float64(seconds) / 3600 * rate))
}
