package llm

const openAIBaseURL = "https://api.openai.com"

// OpenAI provider is implemented using OpenAICompatible.
type OpenAI struct {
	*OpenAICompatible
}

// NewOpenAI creates a new OpenAI provider. An empty baseURL selects the public API.
func NewOpenAI(baseURL, apiKey string, params Params) *OpenAI {
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return &OpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Params:     params,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}
