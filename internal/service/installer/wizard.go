package installer

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sandevgo/medichat/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	selStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("5"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Step represents a single step in the installation wizard
type Step interface {
	Init() tea.Cmd
	Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd)
	View(state *InstallState) string
}

// Skipper lets a step opt out based on earlier answers.
type Skipper interface {
	Skip(state *InstallState) bool
}

func getSteps() []Step {
	return []Step{
		NewProviderStep(),
		NewBaseURLStep(),
		NewAPIKeyStep(),
		NewModelStep(),
		NewEmbeddingStep(),
		NewChannelStep(),
		NewTelegramTokenStep(),
		NewTelegramOwnerStep(),
		NewFinalizationStep(),
		NewSaveEnvStep(),
	}
}

type item struct {
	id    string
	title string
	desc  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.id }

type errMsg error
type nextMsg struct{}

// model is the main Bubble Tea model that orchestrates the steps
type model struct {
	steps       []Step
	currentStep int
	state       *InstallState
	quitting    bool
	err         error
	width       int
	height      int
}

func newModel(steps []Step, state *InstallState) model {
	m := model{steps: steps, state: state}
	m.currentStep = m.nextApplicable(0)
	return m
}

func (m model) nextApplicable(from int) int {
	for from < len(m.steps) {
		if s, ok := m.steps[from].(Skipper); !ok || !s.Skip(m.state) {
			break
		}
		from++
	}
	return from
}

func (m model) Init() tea.Cmd {
	if m.currentStep < len(m.steps) {
		return m.steps[m.currentStep].Init()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case errMsg:
		m.err = msg
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	if m.currentStep >= len(m.steps) {
		return m, tea.Quit
	}

	nextStep, cmd := m.steps[m.currentStep].Update(msg, m.state, m.width, m.height)

	if nextStep == nil {
		m.currentStep = m.nextApplicable(m.currentStep + 1)
		if m.currentStep >= len(m.steps) {
			return m, tea.Quit
		}
		return m, m.steps[m.currentStep].Init()
	}

	if nextStep != m.steps[m.currentStep] {
		m.steps[m.currentStep] = nextStep
	}

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return "Setup cancelled.\n"
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(press ctrl+c to quit)\n"
	}

	if m.currentStep >= len(m.steps) {
		return "Configuration complete!\n"
	}

	return titleStyle.Render("Setting up "+core.AppName+" 🩺") + "\n\n" + m.steps[m.currentStep].View(m.state)
}

// RunWizard starts the TUI and writes .env under runtimePath.
func RunWizard(runtimePath string) (*InstallState, error) {
	p := tea.NewProgram(newModel(getSteps(), NewInstallState(runtimePath)), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		return nil, err
	}

	finalModel := m.(model)
	if finalModel.quitting {
		return nil, fmt.Errorf("setup interrupted")
	}
	if finalModel.currentStep < len(finalModel.steps) {
		return nil, fmt.Errorf("setup did not finish")
	}

	return finalModel.state, nil
}
