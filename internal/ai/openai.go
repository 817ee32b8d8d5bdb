package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OpenAIService implements PlanRequester using the chat completions API.
type OpenAIService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIService(apiKey, model, baseURL string) *OpenAIService {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIService{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (o *OpenAIService) RequestPlan(ctx context.Context, req PlanRequest) (string, error) {
	payload := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": BuildPrompt(req)},
		},
		"temperature": 0.5,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := postJSON(ctx, o.client, o.baseURL+"/chat/completions", headers, payload, &result); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return result.Choices[0].Message.Content, nil
}
