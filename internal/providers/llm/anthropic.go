package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	anthropicDefaultMaxTokens = 1024
)

type Anthropic struct {
	baseProvider
}

func NewAnthropic(baseURL, apiKey string, params Params) *Anthropic {
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	if params.MaxTokens <= 0 {
		// the messages API rejects requests without max_tokens
		params.MaxTokens = anthropicDefaultMaxTokens
	}
	return &Anthropic{
		baseProvider: newBaseProvider(baseURL, apiKey, params),
	}
}

func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":       a.params.Model,
		"max_tokens":  a.params.MaxTokens,
		"temperature": a.params.Temperature,
		"messages":    []chatMessage{{Role: "user", Content: prompt}},
	}

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	resp, err := a.doRequest(ctx, http.MethodPost, "/v1/messages", payload, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	var sb strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
