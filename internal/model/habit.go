package model

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Frequency is the recurrence unit of a habit. It determines the calendar
// window (day, week or month) used for completion eligibility, streaks and
// reminder scheduling.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency validates a user-supplied frequency string. Anything outside
// the closed daily/weekly/monthly set is rejected here so downstream cadence
// code can assume a valid value.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	}
	return "", fmt.Errorf("frequency must be 'daily', 'weekly' or 'monthly', got %q", s)
}

// Status marks a habit or reminder as active or inactive.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus validates a user-supplied status string.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	}
	return "", fmt.Errorf("status must be 'active' or 'inactive', got %q", s)
}

// ReminderTimeLayout is the wall-clock format reminder times are stored in,
// e.g. "09:00 AM".
const ReminderTimeLayout = "03:04 PM"

// Reminder is embedded in a habit document. Time is an hour:minute-of-day in
// ReminderTimeLayout; Status toggles the reminder without deleting it.
type Reminder struct {
	Time   string `bson:"time" json:"time"`
	Status Status `bson:"status" json:"status"`
}

// ParseReminderTime validates a reminder's hour:minute-of-day string.
func ParseReminderTime(s string) error {
	if _, err := time.Parse(ReminderTimeLayout, s); err != nil {
		return fmt.Errorf("reminder time must be in format HH:MM AM/PM, got %q", s)
	}
	return nil
}

// Habit mirrors the 'habits' collection. Streak is a cached value recomputed
// whenever the habit is read or completed; CreatedAt anchors the weekly and
// monthly reminder phase (weekday / day-of-month).
type Habit struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description" json:"description"`
	Frequency        Frequency          `bson:"frequency" json:"frequency"`
	Status           Status             `bson:"status" json:"status"`
	Reminder         *Reminder          `bson:"reminder,omitempty" json:"reminder,omitempty"`
	Streak           int                `bson:"streak" json:"streak"`
	TotalCompletions int                `bson:"totalCompletions" json:"totalCompletions"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
