package reminder

import (
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/habit-tracker/internal/model"
)

// maxScanDays bounds the day-by-day phase scan. Two years is far beyond any
// reachable weekday or day-of-month anchor, so hitting the bound means the
// habit document is corrupt rather than the calendar being awkward.
const maxScanDays = 731

// NextOccurrence computes the next instant the habit's reminder should fire
// strictly after now. The candidate is anchored to "today" at the reminder's
// hour:minute, pushed to tomorrow if already past, then advanced day-by-day
// until it matches the habit's phase anchor: for weekly habits the weekday the
// habit was created on, for monthly habits its creation day-of-month.
//
// A monthly anchor of 29-31 does not exist in every month; the scan simply
// walks through such months into the next one that has the day, so a habit
// created on the 31st is reminded on the 31st of each month that has a 31st.
func NextOccurrence(h model.Habit, now time.Time) (time.Time, error) {
	if h.Reminder == nil {
		return time.Time{}, errors.New("habit has no reminder")
	}
	at, err := time.Parse(model.ReminderTimeLayout, h.Reminder.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reminder time %q: %w", h.Reminder.Time, err)
	}

	y, m, d := now.Date()
	cand := time.Date(y, m, d, at.Hour(), at.Minute(), 0, 0, now.Location())
	if !cand.After(now) {
		cand = cand.AddDate(0, 0, 1)
	}

	switch h.Frequency {
	case model.FrequencyDaily:
		// Already at the next daily slot.
	case model.FrequencyWeekly:
		for cand.Weekday() != h.CreatedAt.Weekday() {
			cand = cand.AddDate(0, 0, 1)
		}
	case model.FrequencyMonthly:
		anchor := h.CreatedAt.Day()
		for i := 0; cand.Day() != anchor; i++ {
			if i >= maxScanDays {
				return time.Time{}, fmt.Errorf("no day %d within %d days of %s", anchor, maxScanDays, now.Format("2006-01-02"))
			}
			cand = cand.AddDate(0, 0, 1)
		}
	default:
		return time.Time{}, fmt.Errorf("invalid frequency %q", h.Frequency)
	}
	return cand, nil
}
