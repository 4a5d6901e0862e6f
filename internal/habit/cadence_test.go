package habit

import (
	"testing"
	"time"

	"github.com/iliyamo/habit-tracker/internal/model"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func activeHabit(f model.Frequency) model.Habit {
	return model.Habit{Name: "read", Frequency: f, Status: model.StatusActive}
}

func TestCanComplete(t *testing.T) {
	sameDay := date(2024, time.January, 17, 8, 0)

	tests := []struct {
		name string
		h    model.Habit
		last *time.Time
		now  time.Time
		want bool
	}{
		{"no history", activeHabit(model.FrequencyDaily), nil, date(2024, time.January, 17, 12, 0), true},
		{"daily same day", activeHabit(model.FrequencyDaily), &sameDay, date(2024, time.January, 17, 21, 0), false},
		{"daily next day", activeHabit(model.FrequencyDaily), &sameDay, date(2024, time.January, 18, 0, 30), true},
		{"weekly same week", activeHabit(model.FrequencyWeekly), &sameDay, date(2024, time.January, 19, 12, 0), false},
		{"weekly next week", activeHabit(model.FrequencyWeekly), &sameDay, date(2024, time.January, 22, 0, 30), true},
		{"monthly same month", activeHabit(model.FrequencyMonthly), &sameDay, date(2024, time.January, 31, 23, 0), false},
		{"monthly next month", activeHabit(model.FrequencyMonthly), &sameDay, date(2024, time.February, 1, 1, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanComplete(tt.h, tt.last, tt.now); got != tt.want {
				t.Fatalf("CanComplete = %v, want %v", got, tt.want)
			}
		})
	}

	inactive := activeHabit(model.FrequencyDaily)
	inactive.Status = model.StatusInactive
	if CanComplete(inactive, nil, date(2024, time.January, 17, 12, 0)) {
		t.Fatal("inactive habit must never be completable")
	}
}

func TestCanCompleteWeeklyBoundaryIsCalendarBased(t *testing.T) {
	// Only two hours elapse, but Sunday night and Monday morning are
	// different calendar weeks.
	last := date(2024, time.January, 21, 23, 0) // Sunday
	now := date(2024, time.January, 22, 1, 0)   // Monday
	if !CanComplete(activeHabit(model.FrequencyWeekly), &last, now) {
		t.Fatal("completion in previous calendar week must be allowed")
	}
}

func TestNextAvailable(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		f    model.Frequency
		want time.Time
	}{
		{"daily", date(2024, time.January, 17, 15, 30), model.FrequencyDaily, date(2024, time.January, 18, 0, 0)},
		{"weekly from wednesday", date(2024, time.January, 31, 10, 0), model.FrequencyWeekly, date(2024, time.February, 5, 0, 0)},
		{"weekly across year end", date(2024, time.December, 31, 10, 0), model.FrequencyWeekly, date(2025, time.January, 6, 0, 0)},
		{"monthly", date(2024, time.January, 15, 10, 0), model.FrequencyMonthly, date(2024, time.February, 1, 0, 0)},
		{"monthly across year end", date(2023, time.December, 15, 10, 0), model.FrequencyMonthly, date(2024, time.January, 1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextAvailable(tt.last, tt.f); !got.Equal(tt.want) {
				t.Fatalf("NextAvailable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextAvailableWeeklyIsNotSevenTimes24h(t *testing.T) {
	// A Sunday completion opens the next window at Monday midnight, far less
	// than 7*24h away.
	last := date(2024, time.January, 21, 23, 0) // Sunday
	got := NextAvailable(last, model.FrequencyWeekly)
	want := date(2024, time.January, 22, 0, 0)
	if !got.Equal(want) {
		t.Fatalf("NextAvailable = %v, want %v", got, want)
	}
}

func TestCurrentStreak(t *testing.T) {
	day := func(d int) time.Time { return date(2024, time.January, d, 12, 0) }

	tests := []struct {
		name        string
		completions []time.Time // most recent first
		f           model.Frequency
		now         time.Time
		want        int
	}{
		{"empty", nil, model.FrequencyDaily, day(5), 0},
		{"three consecutive days", []time.Time{day(3), day(2), day(1)}, model.FrequencyDaily, day(3), 3},
		{"gap separates runs", []time.Time{day(4), day(1)}, model.FrequencyDaily, day(4), 1},
		{"lapsed run", []time.Time{day(3), day(2), day(1)}, model.FrequencyDaily, day(6), 0},
		{"still live next day", []time.Time{day(3), day(2)}, model.FrequencyDaily, day(4), 2},
		{
			"weekly across month boundary",
			[]time.Time{date(2024, time.February, 7, 9, 0), date(2024, time.January, 31, 9, 0), date(2024, time.January, 24, 9, 0)},
			model.FrequencyWeekly,
			date(2024, time.February, 8, 9, 0),
			3,
		},
		{
			"monthly across year boundary",
			[]time.Time{date(2024, time.January, 10, 9, 0), date(2023, time.December, 20, 9, 0), date(2023, time.November, 5, 9, 0)},
			model.FrequencyMonthly,
			date(2024, time.January, 20, 9, 0),
			3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStreak(tt.completions, tt.f, tt.now); got != tt.want {
				t.Fatalf("CurrentStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAllStreaks(t *testing.T) {
	day := func(d int) time.Time { return date(2024, time.January, d, 12, 0) }

	// Days {1,2,3,7,8}: two runs of duration 3 and 2.
	completions := []time.Time{day(8), day(2), day(1), day(7), day(3)} // unordered on purpose
	runs, longest := AllStreaks(completions, model.FrequencyDaily, day(8))

	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Duration != 3 || !runs[0].StartDate.Equal(day(1)) || !runs[0].EndDate.Equal(day(3)) {
		t.Fatalf("first run = %+v", runs[0])
	}
	if runs[1].Duration != 2 || !runs[1].StartDate.Equal(day(7)) || !runs[1].EndDate.Equal(day(8)) {
		t.Fatalf("second run = %+v", runs[1])
	}
	if runs[0].IsActive {
		t.Fatal("closed run must not be active")
	}
	if !runs[1].IsActive {
		t.Fatal("run ending at the latest completion should be active")
	}
	if longest.Duration != 3 {
		t.Fatalf("longest.Duration = %d, want 3", longest.Duration)
	}
}

func TestAllStreaksTieGoesToEarliestRun(t *testing.T) {
	day := func(d int) time.Time { return date(2024, time.January, d, 12, 0) }

	runs, longest := AllStreaks([]time.Time{day(1), day(2), day(5), day(6)}, model.FrequencyDaily, day(20))
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if !longest.EndDate.Equal(day(2)) {
		t.Fatalf("tie must resolve to the earliest-ending run, got end %v", longest.EndDate)
	}
	if runs[1].IsActive {
		t.Fatal("latest run lapsed and must not be active")
	}
}

func TestAllStreaksDuplicateWindowClosesRun(t *testing.T) {
	day := func(d int) time.Time { return date(2024, time.January, d, 12, 0) }

	runs, _ := AllStreaks([]time.Time{day(1), day(1), day(2)}, model.FrequencyDaily, day(2))
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Duration != 1 || runs[1].Duration != 2 {
		t.Fatalf("durations = %d, %d; want 1, 2", runs[0].Duration, runs[1].Duration)
	}
}

func TestAllStreaksEmpty(t *testing.T) {
	runs, longest := AllStreaks(nil, model.FrequencyDaily, date(2024, time.January, 1, 0, 0))
	if runs != nil || longest.Duration != 0 {
		t.Fatalf("empty history: runs=%v longest=%+v", runs, longest)
	}
}

func TestWindowIndexPanicsOnInvalidFrequency(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on invalid frequency")
		}
	}()
	windowIndex(date(2024, time.January, 1, 0, 0), model.Frequency("hourly"))
}
