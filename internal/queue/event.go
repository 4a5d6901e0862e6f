package queue

import "github.com/iliyamo/habit-tracker/internal/model"

// ReminderSentEvent is published to the reminder.sent queue after every
// reminder notification delivery.
type ReminderSentEvent struct {
	HabitID   string          `json:"habit_id"`
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	HabitName string          `json:"habit_name"`
	Frequency model.Frequency `json:"frequency"`
	Streak    int             `json:"streak"`
	SentAt    string          `json:"sent_at"`
}
