package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// APIKeyStep collects the provider API key. Ollama runs without one.
type APIKeyStep struct {
	input      textinput.Model
	provider   string
	title      string
	isOptional bool
}

func NewAPIKeyStep() Step {
	return &APIKeyStep{}
}

func (s *APIKeyStep) Skip(state *InstallState) bool {
	return state.Provider() == "ollama"
}

func (s *APIKeyStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *APIKeyStep) initProvider(state *InstallState) {
	s.provider = state.Provider()

	s.input = textinput.New()
	s.input.Focus()
	s.input.CharLimit = 255
	s.input.Width = 40
	s.input.EchoMode = textinput.EchoPassword
	s.input.EchoCharacter = '•'

	switch s.provider {
	case "anthropic":
		s.title = "Anthropic API Key"
		s.input.Placeholder = "sk-ant-..."
	case "openai":
		s.title = "OpenAI API Key"
		s.input.Placeholder = "sk-..."
	case "openrouter":
		s.title = "OpenRouter API Key"
		s.input.Placeholder = "sk-or-v1-..."
	default:
		s.title = "API Key"
		s.isOptional = true
	}
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.provider == "" {
		s.initProvider(state)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" && !s.isOptional {
			return s, nil
		}
		if val != "" {
			state.EnvVars[EnvAPIKey] = val
		}
		return nil, nil
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	if s.provider == "" {
		s.initProvider(state)
	}

	optionalHint := ""
	if s.isOptional {
		optionalHint = " (optional - press Enter to skip)"
	}

	return fmt.Sprintf("Enter your %s%s:\n\n%s\n\n(press enter to confirm)\n",
		s.title, optionalHint, s.input.View())
}
