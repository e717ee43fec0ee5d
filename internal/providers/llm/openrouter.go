package llm

import "github.com/sandevgo/medichat/internal/core"

const openRouterBaseURL = "https://openrouter.ai/api"

type OpenRouter struct {
	*OpenAICompatible
}

func NewOpenRouter(baseURL, apiKey string, params Params) *OpenRouter {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	return &OpenRouter{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Params:     params,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
			ExtraHeaders: map[string]string{
				"HTTP-Referer": core.AppRepositoryURL,
				"X-Title":      core.AppName,
			},
		}),
	}
}
