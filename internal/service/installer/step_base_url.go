package installer

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// BaseURLStep asks for the endpoint of Ollama or a custom provider.
type BaseURLStep struct {
	input    textinput.Model
	provider string
	err      string
}

func NewBaseURLStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.Width = 50
	return &BaseURLStep{input: ti}
}

func (s *BaseURLStep) Skip(state *InstallState) bool {
	p := state.Provider()
	return p != "ollama" && p != "custom"
}

func (s *BaseURLStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *BaseURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.provider == "" {
		s.provider = state.Provider()
		if s.provider == "ollama" {
			s.input.Placeholder = "http://localhost:11434"
		} else {
			s.input.Placeholder = "https://api.example.com/v1"
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" && s.provider == "ollama" {
			val = s.input.Placeholder
		}
		if val == "" {
			s.err = "a base URL is required for a custom provider"
			return s, nil
		}
		state.EnvVars[EnvBaseURL] = val
		return nil, nil
	}
	return s, cmd
}

func (s *BaseURLStep) View(state *InstallState) string {
	out := "Enter the API base URL:\n\n" + s.input.View() + "\n\n"
	if s.err != "" {
		out += errorStyle.Render(s.err) + "\n\n"
	}
	return out + "(press enter to confirm)\n"
}
