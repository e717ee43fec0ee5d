package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// choiceStep is a cursor menu that stores the chosen id under envKey.
type choiceStep struct {
	prompt  string
	envKey  string
	choices []item
	cursor  int
}

func (s *choiceStep) Init() tea.Cmd {
	return nil
}

func (s *choiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			state.EnvVars[s.envKey] = s.choices[s.cursor].id
			return nil, nil
		}
	}
	return s, nil
}

func (s *choiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.prompt + "\n\n")
	for i, choice := range s.choices {
		line := choice.title
		if choice.desc != "" {
			line += "  " + choice.desc
		}
		if s.cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("❯ %s", line)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", line)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}

// NewProviderStep allows selection of the LLM provider
func NewProviderStep() Step {
	return &choiceStep{
		prompt: "Select the LLM provider:",
		envKey: EnvProvider,
		choices: []item{
			{id: "openai", title: "OpenAI"},
			{id: "openrouter", title: "OpenRouter"},
			{id: "anthropic", title: "Anthropic"},
			{id: "ollama", title: "Ollama", desc: "(local)"},
			{id: "custom", title: "Custom", desc: "(OpenAI compatible endpoint)"},
		},
	}
}
