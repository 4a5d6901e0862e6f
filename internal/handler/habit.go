package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/habit-tracker/internal/habit"
	"github.com/iliyamo/habit-tracker/internal/middleware"
	"github.com/iliyamo/habit-tracker/internal/model"
	"github.com/iliyamo/habit-tracker/internal/reminder"
	"github.com/iliyamo/habit-tracker/internal/repository"
)

// HabitHandler bundles dependencies for habit CRUD, completion and reminder
// endpoints. The scheduler is invoked on every change that affects an active
// reminder so the in-memory timers track the persisted state.
type HabitHandler struct {
	Habits      *repository.HabitRepo
	Completions *repository.CompletionRepo
	Users       *repository.UserRepo
	Scheduler   *reminder.Scheduler
	Clock       reminder.Clock
}

func NewHabitHandler(h *repository.HabitRepo, c *repository.CompletionRepo, u *repository.UserRepo, s *reminder.Scheduler, clk reminder.Clock) *HabitHandler {
	return &HabitHandler{Habits: h, Completions: c, Users: u, Scheduler: s, Clock: clk}
}

type habitReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
}

type reminderReq struct {
	Time   string `json:"time"`
	Status string `json:"status"`
}

func (h *HabitHandler) validateHabitReq(req *habitReq) (model.Frequency, string) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if len(req.Name) < 3 {
		return "", "habit name must be at least 3 characters long"
	}
	if len(req.Description) < 10 {
		return "", "description must be at least 10 characters long"
	}
	freq, err := model.ParseFrequency(req.Frequency)
	if err != nil {
		return "", err.Error()
	}
	return freq, ""
}

// Create adds a new habit for the authenticated user.
func (h *HabitHandler) Create(c echo.Context) error {
	var req habitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	freq, msg := h.validateHabitReq(&req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Habits.Create(ctx, middleware.UserID(c), req.Name, req.Description, freq)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create habit failed"})
	}
	return c.JSON(http.StatusCreated, created)
}

// List returns the user's habits with refreshed streak values. The cached
// streak may be stale (e.g. a lapsed run since the last visit), so each is
// recomputed from history and written back when it changed.
func (h *HabitHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = "active"
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid := middleware.UserID(c)
	habits, err := h.Habits.ListByUser(ctx, uid, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	for i := range habits {
		if err := h.refreshStreak(ctx, &habits[i]); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh streak failed"})
		}
	}
	return c.JSON(http.StatusOK, habits)
}

// Get returns one habit with its derived completion state: whether it can be
// completed now, when it was last completed and when the next window opens.
func (h *HabitHandler) Get(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid habit id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid := middleware.UserID(c)
	hb, err := h.Habits.GetByID(ctx, id, uid)
	if err != nil {
		return habitErr(c, err)
	}
	if err := h.refreshStreak(ctx, &hb); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh streak failed"})
	}

	last, err := h.Completions.Latest(ctx, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load completions failed"})
	}

	now := h.Clock.Now()
	var lastCompleted, nextAvailable *time.Time
	if last != nil {
		lastCompleted = &last.Date
		next := habit.NextAvailable(last.Date, hb.Frequency)
		nextAvailable = &next
	}

	return c.JSON(http.StatusOK, echo.Map{
		"habit":         hb,
		"canComplete":   habit.CanComplete(hb, lastCompleted, now),
		"lastCompleted": lastCompleted,
		"nextAvailable": nextAvailable,
	})
}

// Update edits a habit's name, description and frequency. A frequency change
// shifts the reminder cadence, so an active reminder is re-armed.
func (h *HabitHandler) Update(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid habit id"})
	}
	var req habitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	freq, msg := h.validateHabitReq(&req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid := middleware.UserID(c)
	hb, err := h.Habits.UpdateDetails(ctx, id, uid, req.Name, req.Description, freq)
	if err != nil {
		return habitErr(c, err)
	}

	h.resync(ctx, hb)
	return c.JSON(http.StatusOK, hb)
}

// Deactivate archives a habit and cancels its reminder.
func (h *HabitHandler) Deactivate(c echo.Context) error {
	return h.setStatus(c, model.StatusInactive)
}

// Reactivate unarchives a habit. The reminder stays off until the user turns
// it back on explicitly.
func (h *HabitHandler) Reactivate(c echo.Context) error {
	return h.setStatus(c, model.StatusActive)
}

func (h *HabitHandler) setStatus(c echo.Context, status model.Status) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid habit id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hb, err := h.Habits.SetStatus(ctx, id, middleware.UserID(c), status)
	if err != nil {
		return habitErr(c, err)
	}

	h.resync(ctx, hb)
	return c.JSON(http.StatusOK, hb)
}

// SetReminder creates, edits or toggles the habit's reminder and brings the
// scheduler in line with the new configuration.
func (h *HabitHandler) SetReminder(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid habit id"})
	}
	var req reminderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := model.ParseReminderTime(req.Time); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hb, err := h.Habits.SetReminder(ctx, id, middleware.UserID(c), model.Reminder{Time: req.Time, Status: status})
	if err != nil {
		return habitErr(c, err)
	}

	h.resync(ctx, hb)
	return c.JSON(http.StatusOK, hb)
}

// resync re-arms or cancels the habit's timer after a persisted change. The
// scheduler itself checks habit and reminder status; here we only honor the
// owner's notification opt-out.
func (h *HabitHandler) resync(ctx context.Context, hb model.Habit) {
	u, err := h.Users.GetByID(ctx, hb.UserID)
	if err != nil || !u.EmailPreferences.HabitReminders {
		h.Scheduler.Cancel(hb.ID.Hex())
		return
	}
	h.Scheduler.Schedule(hb, u)
}

// refreshStreak recomputes the cached streak from completion history and
// persists it when stale.
func (h *HabitHandler) refreshStreak(ctx context.Context, hb *model.Habit) error {
	completions, err := h.Completions.ListByHabit(ctx, hb.ID, hb.UserID)
	if err != nil {
		return err
	}
	streak := habit.CurrentStreak(completionDates(completions), hb.Frequency, h.Clock.Now())
	if streak != hb.Streak {
		if err := h.Habits.UpdateStreak(ctx, hb.ID, hb.UserID, streak); err != nil {
			return err
		}
		hb.Streak = streak
	}
	return nil
}

func completionDates(completions []model.Completion) []time.Time {
	dates := make([]time.Time, len(completions))
	for i, c := range completions {
		dates[i] = c.Date
	}
	return dates
}

func habitErr(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
