package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-planner/internal/api"
	"daily-planner/internal/app"
	"daily-planner/internal/bot"
	"daily-planner/internal/config"
	"daily-planner/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, a.Users, a.Tasks, a.Schedules, a.Reminders)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
	} else {
		log.Println("[warn] TELEGRAM_TOKEN is empty, bot disabled")
	}

	scheduler := service.NewSchedulerService(cfg.Location)
	if _, err := scheduler.ScheduleDaily("daily-plan", cfg.DailyPlanAt, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if telegramBot == nil {
			if _, err := a.Schedules.GetOrSynthesize(jobCtx, a.Schedules.Today()); err != nil {
				log.Printf("daily plan: %v", err)
			}
			return
		}
		if err := telegramBot.SendDailyPlans(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("daily plan: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule daily plan: %v", err)
	}
	if _, err := scheduler.ScheduleInterval("cleanup", cfg.CleanupInterval, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := a.Tasks.CleanupExpired(jobCtx); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule cleanup: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(a.Tasks, a.Schedules, a.Calendar, a.Preferences, a.Analytics)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[info] http server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server: %v", err)
			stop()
		}
	}()

	log.Println("Daily planner started.")
	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("bot stopped with error: %v", err)
		}
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Println("Shutdown complete.")
}
