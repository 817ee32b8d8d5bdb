package ai

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned when no plan provider has credentials.
var ErrNotConfigured = errors.New("ai provider is not configured")

// TaskSummary is what the model sees of a task.
type TaskSummary struct {
	Title    string
	Priority string
	Minutes  int
	Energy   string
	Deadline *time.Time
}

// PlanRequest describes the day to plan.
type PlanRequest struct {
	Tasks    []TaskSummary
	Mode     string
	DayStart string
	DayEnd   string
}

// PlanRequester returns the raw plan text produced by a language model.
// Implement this interface to add new AI providers.
type PlanRequester interface {
	RequestPlan(ctx context.Context, req PlanRequest) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
	ProviderNone   ProviderType = "none"
)

// Disabled is the requester used when no provider is available.
type Disabled struct{}

func (Disabled) RequestPlan(context.Context, PlanRequest) (string, error) {
	return "", ErrNotConfigured
}
