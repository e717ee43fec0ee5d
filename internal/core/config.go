package core

type ProviderConfig interface {
	GetModel() string
	SetModel(model string) error
	GetProvider() string
	GetAPIKey() string
	GetBaseURL() string
	GetTemperature() float32
	GetMaxTokens() int
}
