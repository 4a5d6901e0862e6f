package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/habit-tracker/internal/habit"
	"github.com/iliyamo/habit-tracker/internal/middleware"
)

// Streaks returns every maximal streak run in the habit's history along with
// the longest one.
func (h *HabitHandler) Streaks(c echo.Context) error {
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

	completions, err := h.Completions.ListByHabit(ctx, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load completions failed"})
	}

	runs, longest := habit.AllStreaks(completionDates(completions), hb.Frequency, h.Clock.Now())
	return c.JSON(http.StatusOK, echo.Map{
		"habit":         hb,
		"allStreaks":    runs,
		"longestStreak": longest,
	})
}

// Stats returns aggregate completion statistics for the habit.
func (h *HabitHandler) Stats(c echo.Context) error {
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

	completions, err := h.Completions.ListByHabit(ctx, id, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load completions failed"})
	}

	stats := habit.ComputeStats(hb, completionDates(completions), h.Clock.Now())
	return c.JSON(http.StatusOK, stats)
}
