// Package habit implements the cadence engine: pure calendar arithmetic over
// a habit's frequency and its completion history. Every function takes an
// explicit "now" so callers inject the clock and tests stay deterministic.
//
// All comparisons are window-based: two instants belong to the same window iff
// their calendar day, ISO week (Monday start) or month are equal, and windows
// are "consecutive" iff their indices differ by exactly one. Diffing raw
// durations in multiples of 24h or 7*24h gives wrong answers at week, month
// and year boundaries because weekly and monthly windows have variable length.
package habit

import (
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/habit-tracker/internal/model"
)

// CanComplete reports whether a new completion is currently allowed. Inactive
// habits can never be completed. A habit with no completion yet always can;
// otherwise a completion is allowed once per calendar window.
func CanComplete(h model.Habit, lastCompletion *time.Time, now time.Time) bool {
	if h.Status != model.StatusActive {
		return false
	}
	if lastCompletion == nil {
		return true
	}
	return windowIndex(*lastCompletion, h.Frequency) != windowIndex(now, h.Frequency)
}

// NextAvailable returns the instant the next completion becomes possible after
// the given one: start of the next day, week or month.
func NextAvailable(last time.Time, f model.Frequency) time.Time {
	switch f {
	case model.FrequencyDaily:
		return startOfDay(last).AddDate(0, 0, 1)
	case model.FrequencyWeekly:
		return startOfWeek(last).AddDate(0, 0, 7)
	case model.FrequencyMonthly:
		y, m, _ := last.Date()
		return time.Date(y, m+1, 1, 0, 0, 0, 0, last.Location())
	}
	panic(fmt.Sprintf("habit: invalid frequency %q", f))
}

// CurrentStreak computes the length of the run of consecutive-window
// completions ending at the most recent one. Completions must be supplied
// most-recent-first. The run counts only while it is still "live": if the
// latest completion is more than one window behind now, the streak is 0 no
// matter how long the prior run was.
func CurrentStreak(completions []time.Time, f model.Frequency, now time.Time) int {
	if len(completions) == 0 {
		return 0
	}
	prev := windowIndex(completions[0], f)
	if windowIndex(now, f)-prev > 1 {
		return 0
	}
	streak := 1
	for _, c := range completions[1:] {
		idx := windowIndex(c, f)
		if prev-idx != 1 {
			break
		}
		streak++
		prev = idx
	}
	return streak
}

// StreakRun is one maximal sequence of completions in consecutive windows.
// IsActive is set only on the run ending at the latest completion, and only
// while that run could still be extended.
type StreakRun struct {
	Duration  int       `json:"duration"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
}

// AllStreaks partitions the full completion history into maximal runs and
// returns them in chronological order together with the longest one. Input
// order is not trusted; completions are sorted ascending first. A gap of
// anything other than exactly one window closes a run, including a duplicate
// completion inside the same window. When several runs share the maximum
// duration the earliest-ending one wins.
func AllStreaks(completions []time.Time, f model.Frequency, now time.Time) ([]StreakRun, StreakRun) {
	if len(completions) == 0 {
		return nil, StreakRun{}
	}
	sorted := make([]time.Time, len(completions))
	copy(sorted, completions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var runs []StreakRun
	start, end := sorted[0], sorted[0]
	count := 1
	prev := windowIndex(sorted[0], f)
	for _, c := range sorted[1:] {
		idx := windowIndex(c, f)
		if idx-prev == 1 {
			count++
			end = c
		} else {
			runs = append(runs, StreakRun{Duration: count, StartDate: start, EndDate: end})
			start, end, count = c, c, 1
		}
		prev = idx
	}
	runs = append(runs, StreakRun{Duration: count, StartDate: start, EndDate: end})

	// Only the run ending at the latest completion can still be extended.
	last := &runs[len(runs)-1]
	last.IsActive = windowIndex(now, f)-windowIndex(last.EndDate, f) <= 1

	longest := runs[0]
	for _, r := range runs[1:] {
		if r.Duration > longest.Duration {
			longest = r
		}
	}
	return runs, longest
}

// windowIndex maps an instant to its calendar window number for the given
// frequency. Indices of instants in the same window are equal; consecutive
// windows differ by exactly 1.
func windowIndex(t time.Time, f model.Frequency) int {
	switch f {
	case model.FrequencyDaily:
		return dayIndex(t)
	case model.FrequencyWeekly:
		// 1970-01-01 was a Thursday; shifting by 3 days makes the division
		// land week boundaries on Mondays.
		return floorDiv(dayIndex(t)+3, 7)
	case model.FrequencyMonthly:
		y, m, _ := t.Date()
		return y*12 + int(m) - 1
	}
	panic(fmt.Sprintf("habit: invalid frequency %q", f))
}

// dayIndex counts civil days since 1970-01-01 in t's location.
func dayIndex(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return d.AddDate(0, 0, -offset)
}
