// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/habit-tracker/internal/config"
	"github.com/iliyamo/habit-tracker/internal/handler"
	"github.com/iliyamo/habit-tracker/internal/middleware"
)

// Register wires every route on the provided Echo instance. Unauthenticated
// operations live under /v1/auth plus the health check; everything else sits
// behind JWT auth and, when Redis is available, the rate limiter.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, a *handler.AuthHandler, h *handler.HabitHandler) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	auth := e.Group("/v1/auth", limiter)
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout)

	v1 := e.Group("/v1", limiter, middleware.JWTAuth(cfg.JWTSecret))
	v1.GET("/me", a.Me)
	v1.PUT("/settings/notifications", h.UpdateNotificationSettings)

	v1.POST("/habits", h.Create)
	v1.GET("/habits", h.List)
	v1.GET("/habits/:id", h.Get)
	v1.PUT("/habits/:id", h.Update)
	v1.POST("/habits/:id/deactivate", h.Deactivate)
	v1.POST("/habits/:id/reactivate", h.Reactivate)

	v1.POST("/habits/:id/complete", h.Complete)
	v1.GET("/habits/:id/completions", h.ListCompletions)
	v1.GET("/habits/:id/streaks", h.Streaks)
	v1.GET("/habits/:id/stats", h.Stats)
	v1.GET("/habits/:id/export", h.Export)
	v1.PUT("/habits/:id/reminder", h.SetReminder)

	v1.GET("/reminders/scheduled", h.ScheduledReminders)
}
