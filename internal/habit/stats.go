package habit

import (
	"time"

	"github.com/iliyamo/habit-tracker/internal/model"
)

// Stats summarizes a habit's completion history for the stats endpoint.
type Stats struct {
	TotalCompletions    int `json:"totalCompletions"`
	CompletionRate      int `json:"completionRate"` // percent, capped at 100
	CurrentStreak       int `json:"currentStreak"`
	LongestStreak       int `json:"longestStreak"`
	RecentCompletions   int `json:"recentCompletions"` // last 30 days
	DaysSinceCreation   int `json:"daysSinceCreation"`
	ExpectedCompletions int `json:"expectedCompletions"`
}

// ComputeStats derives completion statistics. Completions are supplied
// most-recent-first, matching the store's sort order. Expected completions are
// estimated from the days elapsed since the habit was created: one per day,
// per 7 days or per 30 days depending on frequency, never less than one.
func ComputeStats(h model.Habit, completions []time.Time, now time.Time) Stats {
	days := dayIndex(now) - dayIndex(h.CreatedAt)
	if days < 1 {
		days = 1
	}

	var expected int
	switch h.Frequency {
	case model.FrequencyDaily:
		expected = days
	case model.FrequencyWeekly:
		expected = (days + 6) / 7
	case model.FrequencyMonthly:
		expected = (days + 29) / 30
	default:
		panic("habit: invalid frequency " + string(h.Frequency))
	}
	if expected < 1 {
		expected = 1
	}

	rate := len(completions) * 100 / expected
	if rate > 100 {
		rate = 100
	}

	recent := 0
	cutoff := startOfDay(now).AddDate(0, 0, -30)
	for _, c := range completions {
		if c.After(cutoff) {
			recent++
		}
	}

	_, longest := AllStreaks(completions, h.Frequency, now)

	return Stats{
		TotalCompletions:    len(completions),
		CompletionRate:      rate,
		CurrentStreak:       CurrentStreak(completions, h.Frequency, now),
		LongestStreak:       longest.Duration,
		RecentCompletions:   recent,
		DaysSinceCreation:   days,
		ExpectedCompletions: expected,
	}
}
