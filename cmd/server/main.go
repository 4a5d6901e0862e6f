package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/habit-tracker/internal/config"
	"github.com/iliyamo/habit-tracker/internal/database"
	"github.com/iliyamo/habit-tracker/internal/handler"
	"github.com/iliyamo/habit-tracker/internal/mailer"
	"github.com/iliyamo/habit-tracker/internal/queue"
	"github.com/iliyamo/habit-tracker/internal/reminder"
	"github.com/iliyamo/habit-tracker/internal/repository"
	"github.com/iliyamo/habit-tracker/internal/router"
	queue_publisher "github.com/iliyamo/habit-tracker/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongodb: %v", err)
	}

	users := repository.NewUserRepo(db)
	habits := repository.NewHabitRepo(db)
	completions := repository.NewCompletionRepo(db)
	tokens := repository.NewTokenRepo(db)

	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.AppURL)
	clock := reminder.SystemClock()

	sched := reminder.New(habits, users, mail, clock)
	sched.SetEventPublisher(queue_publisher.PublishReminderSent)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sched.Start(ctx); err != nil {
		// Rehydration failure leaves reminders unarmed but the API usable.
		log.Printf("reminder: initialize: %v", err)
	}
	cancel()

	go func() {
		if err := queue.StartReminderConsumer(); err != nil {
			log.Printf("reminder-consumer: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	habitHandler := handler.NewHabitHandler(habits, completions, users, sched, clock)
	router.Register(e, cfg, rdb, authHandler, habitHandler)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
