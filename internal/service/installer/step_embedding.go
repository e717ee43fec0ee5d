package installer

import tea "github.com/charmbracelet/bubbletea"

// EmbeddingStep chooses how chunks are embedded. OpenAI embeddings reuse
// the chat API key when the chat provider is OpenAI.
type EmbeddingStep struct {
	choiceStep
}

func NewEmbeddingStep() Step {
	return &EmbeddingStep{choiceStep{
		prompt: "Select how documents are embedded:",
		envKey: EnvEmbeddingProvider,
		choices: []item{
			{id: "local", title: "Local", desc: "(feature hashing, no network)"},
			{id: "openai", title: "OpenAI", desc: "(text-embedding-3-small)"},
		},
	}}
}

func (s *EmbeddingStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	next, cmd := s.choiceStep.Update(msg, state, width, height)
	if next != nil {
		return s, cmd
	}
	if state.EnvVars[EnvEmbeddingProvider] == "openai" && state.Provider() == "openai" {
		state.EnvVars[EnvEmbeddingAPIKey] = state.EnvVars[EnvAPIKey]
	}
	return nil, nil
}
