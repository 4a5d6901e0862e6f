package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/habit-tracker/internal/model"
	"github.com/iliyamo/habit-tracker/internal/queue"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeSender struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSender) SendReminder(ctx context.Context, h model.Habit, u model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, h.ID.Hex())
	return f.err
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeHabitStore struct {
	habits []model.Habit
	err    error
}

func (f *fakeHabitStore) ListActiveWithReminders(ctx context.Context) ([]model.Habit, error) {
	return f.habits, f.err
}

type fakeUserStore struct {
	users map[primitive.ObjectID]model.User
	errs  map[primitive.ObjectID]error
}

func (f *fakeUserStore) GetByID(ctx context.Context, id primitive.ObjectID) (model.User, error) {
	if err := f.errs[id]; err != nil {
		return model.User{}, err
	}
	return f.users[id], nil
}

func newTestHabit(f model.Frequency, createdAt time.Time) model.Habit {
	return model.Habit{
		ID:        primitive.NewObjectID(),
		UserID:    primitive.NewObjectID(),
		Name:      "exercise",
		Frequency: f,
		Status:    model.StatusActive,
		Reminder:  &model.Reminder{Time: "09:00 AM", Status: model.StatusActive},
		CreatedAt: createdAt,
	}
}

func optedInUser(id primitive.ObjectID) model.User {
	return model.User{
		ID:               id,
		Email:            "user@example.com",
		EmailPreferences: model.EmailPreferences{HabitReminders: true},
	}
}

func TestScheduleKeepsSingleTimer(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, &fakeSender{}, clock)
	defer s.Stop()

	h := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	u := optedInUser(h.UserID)

	s.Schedule(h, u)
	s.Schedule(h, u)

	got := s.ListScheduled()
	if len(got) != 1 {
		t.Fatalf("got %d scheduled entries, want 1", len(got))
	}
	want, err := NextOccurrence(h, clock.Now())
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	if !got[0].NextRun.Equal(want) {
		t.Fatalf("NextRun = %v, want %v", got[0].NextRun, want)
	}
}

func TestScheduleInactiveHabitCancels(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, &fakeSender{}, clock)
	defer s.Stop()

	h := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	u := optedInUser(h.UserID)

	s.Schedule(h, u)

	h.Status = model.StatusInactive
	s.Schedule(h, u)
	if n := len(s.ListScheduled()); n != 0 {
		t.Fatalf("inactive habit left %d entries, want 0", n)
	}

	h.Status = model.StatusActive
	h.Reminder.Status = model.StatusInactive
	s.Schedule(h, u)
	if n := len(s.ListScheduled()); n != 0 {
		t.Fatalf("inactive reminder left %d entries, want 0", n)
	}
}

func TestCancelRemovesEntry(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, &fakeSender{}, clock)
	defer s.Stop()

	h := newTestHabit(model.FrequencyWeekly, date(2024, time.January, 15, 8, 0))
	s.Schedule(h, optedInUser(h.UserID))
	s.Cancel(h.ID.Hex())

	if n := len(s.ListScheduled()); n != 0 {
		t.Fatalf("got %d entries after cancel, want 0", n)
	}
	// Cancelling a habit that was never scheduled is a no-op.
	s.Cancel(primitive.NewObjectID().Hex())
}

func TestFireSendsAndReArmsFromFireInstant(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	sender := &fakeSender{}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, sender, clock)
	defer s.Stop()

	h := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	u := optedInUser(h.UserID)
	s.Schedule(h, u)

	id := h.ID.Hex()
	s.mu.Lock()
	gen := s.gens[id]
	firedAt := s.entries[id].nextRun
	s.entries[id].timer.Stop() // drive the fire by hand instead
	s.mu.Unlock()

	s.fire(h, u, gen, firedAt)

	if calls := sender.sent(); len(calls) != 1 || calls[0] != id {
		t.Fatalf("sender calls = %v, want one call for %s", calls, id)
	}

	want, err := NextOccurrence(h, firedAt)
	if err != nil {
		t.Fatalf("NextOccurrence: %v", err)
	}
	got := s.ListScheduled()
	if len(got) != 1 {
		t.Fatalf("got %d entries after fire, want 1", len(got))
	}
	if !got[0].NextRun.Equal(want) {
		t.Fatalf("re-armed NextRun = %v, want %v", got[0].NextRun, want)
	}
}

func TestStaleFireDoesNotReArm(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	sender := &fakeSender{}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, sender, clock)
	defer s.Stop()

	h := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	u := optedInUser(h.UserID)
	s.Schedule(h, u)

	id := h.ID.Hex()
	s.mu.Lock()
	gen := s.gens[id]
	firedAt := s.entries[id].nextRun
	s.mu.Unlock()

	s.Cancel(id)
	s.fire(h, u, gen, firedAt)

	// The in-flight send still completes, but the cancelled generation must
	// not re-arm.
	if calls := sender.sent(); len(calls) != 1 {
		t.Fatalf("sender calls = %v, want exactly one", calls)
	}
	if n := len(s.ListScheduled()); n != 0 {
		t.Fatalf("stale fire re-armed: %d entries, want 0", n)
	}
}

func TestFireSendFailureStillReArms(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	sender := &fakeSender{err: errors.New("smtp down")}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, sender, clock)
	defer s.Stop()

	h := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	u := optedInUser(h.UserID)
	s.Schedule(h, u)

	id := h.ID.Hex()
	s.mu.Lock()
	gen := s.gens[id]
	firedAt := s.entries[id].nextRun
	s.entries[id].timer.Stop()
	s.mu.Unlock()

	s.fire(h, u, gen, firedAt)

	if n := len(s.ListScheduled()); n != 1 {
		t.Fatalf("got %d entries after failed send, want 1", n)
	}
}

func TestFirePublishesSentEvent(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	sender := &fakeSender{}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, sender, clock)
	defer s.Stop()

	var (
		mu     sync.Mutex
		events []queue.ReminderSentEvent
	)
	s.SetEventPublisher(func(ctx context.Context, ev queue.ReminderSentEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
		return nil
	})

	h := newTestHabit(model.FrequencyWeekly, date(2024, time.January, 15, 8, 0))
	h.Streak = 4
	u := optedInUser(h.UserID)
	s.Schedule(h, u)

	id := h.ID.Hex()
	s.mu.Lock()
	gen := s.gens[id]
	firedAt := s.entries[id].nextRun
	s.entries[id].timer.Stop()
	s.mu.Unlock()

	s.fire(h, u, gen, firedAt)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.HabitID != id || ev.Email != u.Email || ev.Streak != 4 || ev.Frequency != model.FrequencyWeekly {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestStartRehydratesPersistedReminders(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}

	scheduled := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	optedOut := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	orphaned := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))

	habits := &fakeHabitStore{habits: []model.Habit{scheduled, optedOut, orphaned}}
	users := &fakeUserStore{
		users: map[primitive.ObjectID]model.User{
			scheduled.UserID: optedInUser(scheduled.UserID),
			optedOut.UserID:  {ID: optedOut.UserID, Email: "quiet@example.com"},
		},
		errs: map[primitive.ObjectID]error{
			orphaned.UserID: errors.New("user not found"),
		},
	}

	s := New(habits, users, &fakeSender{}, clock)
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := s.ListScheduled()
	if len(got) != 1 {
		t.Fatalf("got %d entries after rehydration, want 1", len(got))
	}
	if got[0].HabitID != scheduled.ID.Hex() {
		t.Fatalf("rehydrated %s, want %s", got[0].HabitID, scheduled.ID.Hex())
	}
}

func TestStartReturnsStoreError(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	s := New(&fakeHabitStore{err: errors.New("mongo down")}, &fakeUserStore{}, &fakeSender{}, clock)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error when the habit store fails")
	}
}

func TestCancelForUser(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}

	mine := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	mineToo := newTestHabit(model.FrequencyWeekly, date(2024, time.January, 15, 8, 0))
	mineToo.UserID = mine.UserID
	other := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))

	habits := &fakeHabitStore{habits: []model.Habit{mine, mineToo, other}}
	s := New(habits, &fakeUserStore{}, &fakeSender{}, clock)
	defer s.Stop()

	s.Schedule(mine, optedInUser(mine.UserID))
	s.Schedule(mineToo, optedInUser(mineToo.UserID))
	s.Schedule(other, optedInUser(other.UserID))

	s.CancelForUser(context.Background(), mine.UserID)

	got := s.ListScheduled()
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].HabitID != other.ID.Hex() {
		t.Fatalf("survivor = %s, want %s", got[0].HabitID, other.ID.Hex())
	}
}

func TestStopClearsEverything(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, &fakeSender{}, clock)

	for i := 0; i < 3; i++ {
		h := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
		s.Schedule(h, optedInUser(h.UserID))
	}
	s.Stop()

	if n := len(s.ListScheduled()); n != 0 {
		t.Fatalf("got %d entries after Stop, want 0", n)
	}
}

func TestListScheduledSortedByNextRun(t *testing.T) {
	clock := fixedClock{now: date(2024, time.January, 20, 8, 0)}
	s := New(&fakeHabitStore{}, &fakeUserStore{}, &fakeSender{}, clock)
	defer s.Stop()

	later := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	later.Reminder.Time = "11:00 PM"
	sooner := newTestHabit(model.FrequencyDaily, date(2024, time.January, 1, 8, 0))
	sooner.Reminder.Time = "09:00 AM"

	s.Schedule(later, optedInUser(later.UserID))
	s.Schedule(sooner, optedInUser(sooner.UserID))

	got := s.ListScheduled()
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if !got[0].NextRun.Before(got[1].NextRun) {
		t.Fatalf("entries not sorted: %v then %v", got[0].NextRun, got[1].NextRun)
	}
	if got[0].HabitID != sooner.ID.Hex() {
		t.Fatalf("first entry = %s, want %s", got[0].HabitID, sooner.ID.Hex())
	}
}
