package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OllamaService implements PlanRequester using a local Ollama server.
type OllamaService struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{baseURL: strings.TrimRight(baseURL, "/"), model: model, client: &http.Client{}}
}

func (o *OllamaService) RequestPlan(ctx context.Context, req PlanRequest) (string, error) {
	payload := map[string]interface{}{
		"model":  o.model,
		"system": systemPrompt,
		"prompt": BuildPrompt(req),
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.5,
		},
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := postJSON(ctx, o.client, o.baseURL+"/api/generate", nil, payload, &result); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return result.Response, nil
}
