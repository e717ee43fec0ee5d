package installer

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// SaveEnvStep writes the collected configuration to .env and creates the
// watched documents directory.
type SaveEnvStep struct {
	err  error
	path string
}

func NewSaveEnvStep() Step {
	return &SaveEnvStep{}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.path != "" {
		return nil, nil
	}
	if s.err != nil {
		return s, nil
	}

	path, err := state.WriteEnv()
	if err != nil {
		s.err = err
		return s, nil
	}
	if dir := state.EnvVars[EnvWatchDir]; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.err = fmt.Errorf("failed to create documents directory: %w", err)
			return s, nil
		}
	}

	s.path = path
	return nil, nil
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.path != "" {
		return "Configuration saved to " + s.path + "\n"
	}
	return "Saving configuration...\n"
}
