package installer

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var suggestedModels = map[string][]item{
	"openai": {
		{id: "gpt-4o-mini", title: "GPT-4o mini", desc: "fast and inexpensive"},
		{id: "gpt-4o", title: "GPT-4o", desc: "higher quality answers"},
		{id: "gpt-3.5-turbo", title: "GPT-3.5 Turbo", desc: "legacy default"},
	},
	"openrouter": {
		{id: "openai/gpt-4o-mini", title: "OpenAI GPT-4o mini", desc: "openai/gpt-4o-mini"},
		{id: "anthropic/claude-3.5-haiku", title: "Claude 3.5 Haiku", desc: "anthropic/claude-3.5-haiku"},
		{id: "meta-llama/llama-3.1-70b-instruct", title: "Llama 3.1 70B", desc: "meta-llama/llama-3.1-70b-instruct"},
	},
	"anthropic": {
		{id: "claude-3-5-haiku-latest", title: "Claude 3.5 Haiku", desc: "fast"},
		{id: "claude-3-5-sonnet-latest", title: "Claude 3.5 Sonnet", desc: "higher quality answers"},
	},
	"ollama": {
		{id: "llama3.1", title: "Llama 3.1", desc: "ollama pull llama3.1"},
		{id: "mistral", title: "Mistral", desc: "ollama pull mistral"},
		{id: "meditron", title: "Meditron", desc: "medical fine-tune, ollama pull meditron"},
	},
}

// ModelStep picks from suggested models, or asks for a name when the
// provider has no suggestions.
type ModelStep struct {
	list     list.Model
	input    textinput.Model
	freeform bool
	ready    bool
}

func NewModelStep() Step {
	return &ModelStep{}
}

func (s *ModelStep) Init() tea.Cmd {
	return nil
}

func (s *ModelStep) setup(state *InstallState) {
	s.ready = true
	models, ok := suggestedModels[state.Provider()]
	if !ok {
		s.freeform = true
		s.input = textinput.New()
		s.input.Placeholder = "model name"
		s.input.Width = 40
		s.input.Focus()
		return
	}

	items := make([]list.Item, len(models))
	for i, m := range models {
		items[i] = m
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select the chat model"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	s.list = l
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		s.setup(state)
	}

	var cmd tea.Cmd
	if s.freeform {
		s.input, cmd = s.input.Update(msg)
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			if val := strings.TrimSpace(s.input.Value()); val != "" {
				state.EnvVars[EnvModel] = val
				return nil, nil
			}
		}
		return s, cmd
	}

	if height > 4 {
		s.list.SetSize(width, height-4)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && s.list.FilterState() != list.Filtering {
		if i, ok := s.list.SelectedItem().(item); ok {
			state.EnvVars[EnvModel] = i.id
			return nil, nil
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if !s.ready {
		s.setup(state)
	}
	if s.freeform {
		return "Enter the model name:\n\n" + s.input.View() + "\n\n(press enter to confirm)\n"
	}
	return s.list.View()
}
