package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Invalidation scopes for persisted schedules after a task change.
const (
	InvalidateAll       = "all"
	InvalidateFromToday = "from_today"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL   string
	HTTPAddr      string
	TelegramToken string
	Location      *time.Location

	AIProvider    string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
	OllamaBaseURL string
	OllamaModel   string
	PlanTimeout   time.Duration

	InvalidationScope string
	DailyPlanAt       string
	CleanupInterval   time.Duration
}

// Load reads configuration from the environment, and from a .env file when
// one is present, with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:       env("DATABASE_URL", "daily_planner.db"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		TelegramToken:     env("TELEGRAM_TOKEN", ""),
		AIProvider:        strings.ToLower(env("AI_PROVIDER", "auto")),
		OpenAIAPIKey:      env("OPENAI_API_KEY", ""),
		OpenAIModel:       env("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:      env("GEMINI_API_KEY", ""),
		GeminiModel:       env("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaBaseURL:     env("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       env("OLLAMA_MODEL", "llama3"),
		PlanTimeout:       time.Duration(positiveInt("PLAN_TIMEOUT_SECONDS", 20)) * time.Second,
		InvalidationScope: strings.ToLower(env("SCHEDULE_INVALIDATION", InvalidateFromToday)),
		DailyPlanAt:       env("DAILY_PLAN_AT", "07:00"),
		CleanupInterval:   time.Duration(positiveInt("CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,
	}

	cfg.Location = time.Local
	if tz := env("PLANNER_TZ", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("PLANNER_TZ: %w", err)
		}
		cfg.Location = loc
	}

	switch cfg.InvalidationScope {
	case InvalidateAll, InvalidateFromToday:
	default:
		return cfg, fmt.Errorf("SCHEDULE_INVALIDATION must be %q or %q, got %q",
			InvalidateAll, InvalidateFromToday, cfg.InvalidationScope)
	}

	switch cfg.AIProvider {
	case "openai", "gemini", "ollama", "auto", "none":
	default:
		cfg.AIProvider = "auto"
	}

	if _, err := time.Parse("15:04", cfg.DailyPlanAt); err != nil {
		cfg.DailyPlanAt = "07:00"
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) int {
	raw := env(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
