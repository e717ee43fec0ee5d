package installer

import (
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep computes derived values
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	finalize(state)
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

func finalize(state *InstallState) {
	state.EnvVars[EnvEnableTelegram] = strconv.FormatBool(wantsTelegram(state))
	state.EnvVars[EnvEnableHTTP] = strconv.FormatBool(wantsHTTP(state))

	if state.EnvVars[EnvEmbeddingProvider] == "" {
		state.EnvVars[EnvEmbeddingProvider] = "local"
	}
	if state.EnvVars[EnvWatchDir] == "" {
		state.EnvVars[EnvWatchDir] = filepath.Join(state.RuntimePath, "documents")
	}
	if state.EnvVars[EnvDebug] == "" {
		state.EnvVars[EnvDebug] = "0"
	}

	delete(state.EnvVars, keyChannel)
}
