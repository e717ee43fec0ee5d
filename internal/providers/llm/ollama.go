package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const ollamaBaseURL = "http://localhost:11434"

type Ollama struct {
	*OpenAICompatible
}

func NewOllama(baseURL, apiKey string, params Params) *Ollama {
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	return &Ollama{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Params:     params,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}

// Ping checks that the local daemon answers before the first question is sent.
func (o *Ollama) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}
