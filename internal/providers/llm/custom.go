package llm

import "errors"

var ErrMissingBaseURL = errors.New("custom provider requires a base url")

type CustomOpenAI struct {
	*OpenAICompatible
}

func NewCustomOpenAI(baseURL, apiKey string, params Params) (*CustomOpenAI, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	return &CustomOpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Params:     params,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}, nil
}
