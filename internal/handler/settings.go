package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/habit-tracker/internal/middleware"
	"github.com/iliyamo/habit-tracker/internal/model"
)

type notificationSettingsReq struct {
	HabitReminders bool `json:"habitReminders"`
}

// UpdateNotificationSettings toggles the user's habit-reminder emails.
// Opting out tears down the user's scheduled timers immediately; opting in
// re-arms reminders for all of their eligible habits.
func (h *HabitHandler) UpdateNotificationSettings(c echo.Context) error {
	var req notificationSettingsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid := middleware.UserID(c)
	u, err := h.Users.UpdateEmailPreferences(ctx, uid, model.EmailPreferences{HabitReminders: req.HabitReminders})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update settings failed"})
	}

	if !req.HabitReminders {
		h.Scheduler.CancelForUser(ctx, uid)
	} else {
		habits, err := h.Habits.ListByUser(ctx, uid, "active")
		if err == nil {
			for _, hb := range habits {
				h.Scheduler.Schedule(hb, u)
			}
		}
	}

	return c.JSON(http.StatusOK, u)
}
