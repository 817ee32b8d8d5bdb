package app

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"daily-planner/internal/ai"
	"daily-planner/internal/config"
	"daily-planner/internal/repository"
	"daily-planner/internal/service"
)

// App holds the repositories and services shared by the server and the CLI.
type App struct {
	Config config.Config
	DB     *gorm.DB
	sqlDB  *sql.DB

	Users *repository.UserRepository

	Tasks       *service.TaskService
	Schedules   *service.ScheduleService
	Calendar    *service.CalendarService
	Preferences *service.PreferencesService
	Analytics   *service.AnalyticsService
	Reminders   *service.ReminderService
}

// New opens the database and wires every service.
func New(cfg config.Config) (*App, error) {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}

	requester, err := ai.NewPlanRequester(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("plan generator: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	prefsRepo := repository.NewPreferencesRepository(db)

	loc := cfg.Location
	invalidator := service.NewInvalidator(scheduleRepo, cfg.InvalidationScope, loc)
	tasks := service.NewTaskService(taskRepo, prefsRepo, invalidator, loc)
	schedules := service.NewScheduleService(taskRepo, scheduleRepo, calendarRepo, prefsRepo, requester, loc, cfg.PlanTimeout)

	return &App{
		Config:      cfg,
		DB:          db,
		sqlDB:       sqlDB,
		Users:       repository.NewUserRepository(db),
		Tasks:       tasks,
		Schedules:   schedules,
		Calendar:    service.NewCalendarService(calendarRepo, scheduleRepo, loc),
		Preferences: service.NewPreferencesService(prefsRepo, invalidator),
		Analytics:   service.NewAnalyticsService(taskRepo, scheduleRepo, loc),
		Reminders:   service.NewReminderService(schedules, tasks),
	}, nil
}

func (a *App) Close() error {
	return a.sqlDB.Close()
}
