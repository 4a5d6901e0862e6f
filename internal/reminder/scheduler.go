// Package reminder schedules habit reminder notifications with an in-process
// chain of one-shot timers. Each armed habit owns exactly one timer; when it
// fires the notification is sent, the next occurrence is computed from the
// instant that fired, and the timer is re-armed. Timers do not survive a
// restart — Start replays the currently-active reminders from the store.
package reminder

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/habit-tracker/internal/model"
	"github.com/iliyamo/habit-tracker/internal/queue"
)

// Clock abstracts the current instant so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// HabitStore supplies habits for restart-time rehydration.
type HabitStore interface {
	ListActiveWithReminders(ctx context.Context) ([]model.Habit, error)
}

// UserStore supplies habit owners so their notification preference is honored.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (model.User, error)
}

// Sender delivers a reminder notification. Failures carry no retry contract;
// the scheduler logs them and re-arms regardless.
type Sender interface {
	SendReminder(ctx context.Context, h model.Habit, u model.User) error
}

// ScheduledReminder is the diagnostic view of one armed timer.
type ScheduledReminder struct {
	HabitID   string          `json:"habitId"`
	NextRun   time.Time       `json:"nextRun"`
	Frequency model.Frequency `json:"frequency"`
}

type entry struct {
	timer   *time.Timer
	nextRun time.Time
	freq    model.Frequency
	gen     uint64
}

// Scheduler owns the habitID->timer map. All mutations of an entry are
// serialized under mu; a per-habit generation counter lets an in-flight fire
// detect that it was cancelled or superseded and refuse to re-arm.
type Scheduler struct {
	habits      HabitStore
	users       UserStore
	sender      Sender
	clock       Clock
	sendTimeout time.Duration
	publish     func(ctx context.Context, ev queue.ReminderSentEvent) error

	mu      sync.Mutex
	entries map[string]*entry
	gens    map[string]uint64
}

// New builds a stopped scheduler. Call Start to rehydrate persisted reminders.
func New(habits HabitStore, users UserStore, sender Sender, clock Clock) *Scheduler {
	return &Scheduler{
		habits:      habits,
		users:       users,
		sender:      sender,
		clock:       clock,
		sendTimeout: 30 * time.Second,
		entries:     make(map[string]*entry),
		gens:        make(map[string]uint64),
	}
}

// SetEventPublisher wires an optional best-effort audit publisher invoked
// after every fired reminder.
func (s *Scheduler) SetEventPublisher(fn func(ctx context.Context, ev queue.ReminderSentEvent) error) {
	s.publish = fn
}

// Start arms a timer for every active habit whose reminder is active and whose
// owner has habit-reminder emails enabled. A failure for one habit is logged
// and skipped so the rest still get scheduled.
func (s *Scheduler) Start(ctx context.Context) error {
	habits, err := s.habits.ListActiveWithReminders(ctx)
	if err != nil {
		return err
	}
	for _, h := range habits {
		u, err := s.users.GetByID(ctx, h.UserID)
		if err != nil {
			log.Printf("reminder: init habit %s: fetch user: %v", h.ID.Hex(), err)
			continue
		}
		if !u.EmailPreferences.HabitReminders {
			continue
		}
		s.Schedule(h, u)
	}
	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()
	log.Printf("reminder: %d reminder(s) scheduled", n)
	return nil
}

// Schedule arms (or re-arms) the habit's reminder. If the habit or its
// reminder is inactive this degrades to Cancel. Calling it repeatedly leaves
// exactly one live timer for the habit.
func (s *Scheduler) Schedule(h model.Habit, u model.User) {
	id := h.ID.Hex()
	if h.Status != model.StatusActive || h.Reminder == nil || h.Reminder.Status != model.StatusActive {
		s.Cancel(id)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)

	now := s.clock.Now()
	next, err := NextOccurrence(h, now)
	if err != nil {
		log.Printf("reminder: schedule habit %s: %v", id, err)
		return
	}
	s.armLocked(h, u, next, now)
}

// armLocked registers an entry under a fresh generation. Caller holds mu.
func (s *Scheduler) armLocked(h model.Habit, u model.User, next, now time.Time) {
	id := h.ID.Hex()
	gen := s.gens[id] + 1
	s.gens[id] = gen
	e := &entry{nextRun: next, freq: h.Frequency, gen: gen}
	e.timer = time.AfterFunc(next.Sub(now), func() { s.fire(h, u, gen, next) })
	s.entries[id] = e
}

// fire runs on the timer goroutine: deliver the notification, then re-arm for
// the occurrence after the one that just fired. The generation check makes a
// stale fire from a cancelled-then-rescheduled habit a no-op.
func (s *Scheduler) fire(h model.Habit, u model.User, gen uint64, firedAt time.Time) {
	id := h.ID.Hex()

	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	if err := s.sender.SendReminder(ctx, h, u); err != nil {
		log.Printf("reminder: send failed for habit %s: %v", id, err)
	} else if s.publish != nil {
		ev := queue.ReminderSentEvent{
			HabitID:   id,
			UserID:    u.ID.Hex(),
			Email:     u.Email,
			HabitName: h.Name,
			Frequency: h.Frequency,
			Streak:    h.Streak,
			SentAt:    s.clock.Now().UTC().Format(time.RFC3339),
		}
		_ = s.publish(ctx, ev) // publisher logs its own failures
	}
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[id] != gen {
		return // cancelled or rescheduled while we were sending
	}
	next, err := NextOccurrence(h, firedAt)
	if err != nil {
		log.Printf("reminder: re-arm habit %s: %v", id, err)
		delete(s.entries, id)
		return
	}
	s.armLocked(h, u, next, s.clock.Now())
}

// Cancel stops and forgets the habit's timer. Safe to call when nothing is
// scheduled; a timer that already started firing completes its send but will
// not re-arm.
func (s *Scheduler) Cancel(habitID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(habitID)
}

func (s *Scheduler) cancelLocked(habitID string) {
	if e, ok := s.entries[habitID]; ok {
		e.timer.Stop()
		delete(s.entries, habitID)
	}
	s.gens[habitID]++ // invalidate any in-flight fire
}

// CancelForUser drops every scheduled reminder belonging to the user. Used
// when the user opts out of habit-reminder emails.
func (s *Scheduler) CancelForUser(ctx context.Context, userID primitive.ObjectID) {
	habits, err := s.habits.ListActiveWithReminders(ctx)
	if err != nil {
		log.Printf("reminder: cancel for user %s: %v", userID.Hex(), err)
		return
	}
	for _, h := range habits {
		if h.UserID == userID {
			s.Cancel(h.ID.Hex())
		}
	}
}

// Stop cancels every armed reminder for a clean shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.timer.Stop()
		s.gens[id]++
		delete(s.entries, id)
	}
}

// ListScheduled returns the armed reminders ordered by next run time.
func (s *Scheduler) ListScheduled() []ScheduledReminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduledReminder, 0, len(s.entries))
	for id, e := range s.entries {
		out = append(out, ScheduledReminder{HabitID: id, NextRun: e.nextRun, Frequency: e.freq})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRun.Before(out[j].NextRun) })
	return out
}
