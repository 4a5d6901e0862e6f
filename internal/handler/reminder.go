package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ScheduledReminders is a diagnostic listing of every armed reminder timer:
// habit id, next run instant and frequency.
func (h *HabitHandler) ScheduledReminders(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Scheduler.ListScheduled())
}
