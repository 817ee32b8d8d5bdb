package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiService implements PlanRequester using generateContent.
type GeminiService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiService(apiKey, model string) *GeminiService {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiService{apiKey: apiKey, model: model, baseURL: geminiBaseURL, client: &http.Client{}}
}

func (g *GeminiService) RequestPlan(ctx context.Context, req PlanRequest) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))

	payload := map[string]interface{}{
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]string{{"text": systemPrompt}},
		},
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": BuildPrompt(req)}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.5,
		},
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := postJSON(ctx, g.client, endpoint, nil, payload, &result); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}
