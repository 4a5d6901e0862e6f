package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/habit-tracker/internal/middleware"
	"github.com/iliyamo/habit-tracker/internal/model"
)

// Export streams the habit's metadata and full completion history as a CSV
// download.
func (h *HabitHandler) Export(c echo.Context) error {
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

	data, err := exportCSV(hb, completions)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s-completions.csv"`, hb.ID.Hex()))
	return c.Blob(http.StatusOK, "text/csv", data)
}

// exportCSV renders a habit summary block followed by one row per completion,
// oldest first.
func exportCSV(hb model.Habit, completions []model.Completion) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	summary := [][]string{
		{"name", hb.Name},
		{"description", hb.Description},
		{"frequency", string(hb.Frequency)},
		{"status", string(hb.Status)},
		{"currentStreak", strconv.Itoa(hb.Streak)},
		{"totalCompletions", strconv.Itoa(hb.TotalCompletions)},
		{"createdAt", hb.CreatedAt.Format(time.RFC3339)},
		{},
		{"date", "time"},
	}
	if err := w.WriteAll(summary); err != nil {
		return nil, err
	}

	for i := len(completions) - 1; i >= 0; i-- {
		c := completions[i]
		if err := w.Write([]string{c.Date.Format(time.RFC3339), c.Time}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
