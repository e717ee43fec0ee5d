package installer

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TelegramTokenStep collects the Telegram bot token
type TelegramTokenStep struct {
	input textinput.Model
}

func NewTelegramTokenStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = "123456789:ABCDEF..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'

	return &TelegramTokenStep{
		input: ti,
	}
}

func (s *TelegramTokenStep) Skip(state *InstallState) bool {
	return !wantsTelegram(state)
}

func (s *TelegramTokenStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *TelegramTokenStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if val := strings.TrimSpace(s.input.Value()); val != "" {
			state.EnvVars[EnvTelegramToken] = val
			return nil, nil
		}
	}
	return s, cmd
}

func (s *TelegramTokenStep) View(state *InstallState) string {
	return "Enter your Telegram Bot Token:\n\n" +
		s.input.View() + "\n\n" +
		"(press enter to confirm)\n"
}

// TelegramOwnerStep collects the numeric id of the only user the bot answers.
type TelegramOwnerStep struct {
	input textinput.Model
	err   string
}

func NewTelegramOwnerStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 20
	ti.Width = 40
	ti.Placeholder = "123456789"

	return &TelegramOwnerStep{
		input: ti,
	}
}

func (s *TelegramOwnerStep) Skip(state *InstallState) bool {
	return !wantsTelegram(state)
}

func (s *TelegramOwnerStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *TelegramOwnerStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if _, err := strconv.ParseInt(val, 10, 64); err != nil {
			s.err = "the owner id must be a number"
			return s, nil
		}
		state.EnvVars[EnvTelegramOwnerID] = val
		return nil, nil
	}
	return s, cmd
}

func (s *TelegramOwnerStep) View(state *InstallState) string {
	out := "Enter your Telegram User ID (Owner):\n\n" + s.input.View() + "\n\n"
	if s.err != "" {
		out += errorStyle.Render(s.err) + "\n\n"
	}
	return out + "(press enter to confirm)\n"
}
