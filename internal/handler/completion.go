package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/habit-tracker/internal/habit"
	"github.com/iliyamo/habit-tracker/internal/middleware"
	"github.com/iliyamo/habit-tracker/internal/model"
)

// Complete records a completion for the habit if the current window allows
// one, then recomputes and persists the streak.
func (h *HabitHandler) Complete(c echo.Context) error {
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

	last, err := h.Completions.Latest(ctx, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load completions failed"})
	}
	var lastDate *time.Time
	if last != nil {
		lastDate = &last.Date
	}

	now := h.Clock.Now()
	if !habit.CanComplete(hb, lastDate, now) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot complete habit again until next interval"})
	}

	completion, err := h.Completions.Create(ctx, id, uid, now, now.Format(model.ReminderTimeLayout))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record completion failed"})
	}

	completions, err := h.Completions.ListByHabit(ctx, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load completions failed"})
	}
	streak := habit.CurrentStreak(completionDates(completions), hb.Frequency, now)

	updated, err := h.Habits.RecordCompletion(ctx, id, uid, streak)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update habit stats failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"completion": completion,
		"habit":      updated,
	})
}

// ListCompletions returns the habit's completion history, most recent first.
func (h *HabitHandler) ListCompletions(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid habit id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid := middleware.UserID(c)
	if _, err := h.Habits.GetByID(ctx, id, uid); err != nil {
		return habitErr(c, err)
	}

	completions, err := h.Completions.ListByHabit(ctx, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load completions failed"})
	}
	return c.JSON(http.StatusOK, completions)
}
