package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/canonsim/internal/config"
)

// ErrAborted is returned when the user leaves the form without submitting.
var ErrAborted = fmt.Errorf("prompt aborted: %w", context.Canceled)

const (
	fieldParticles = iota
	fieldLevels
	fieldEnergy
	fieldWorkers
	numFields
)

var fieldLabels = [numFields]string{
	fieldParticles: "Particles",
	fieldLevels:    "Energy levels",
	fieldEnergy:    "Total energy",
	fieldWorkers:   "Workers",
}

// FormModel collects the simulation parameters.
type FormModel struct {
	inputs    []textinput.Model
	focus     int
	keymap    KeyMap
	base      config.AppConfig
	result    config.AppConfig
	err       error
	submitted bool
	aborted   bool
}

// NewFormModel builds a form whose placeholders show the values of cfg.
func NewFormModel(cfg config.AppConfig) FormModel {
	placeholders := [numFields]string{
		fieldParticles: strconv.Itoa(cfg.Particles),
		fieldLevels:    cfg.Capacity().String(),
		fieldEnergy:    strconv.Itoa(cfg.TotalEnergy),
		fieldWorkers:   strconv.Itoa(cfg.Workers),
	}
	inputs := make([]textinput.Model, numFields)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 20
		ti.Width = 20
		ti.Prompt = "› "
		inputs[i] = ti
	}
	inputs[0].Focus()
	return FormModel{inputs: inputs, keymap: DefaultKeyMap(), base: cfg}
}

// Init starts the cursor blink.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles navigation, submission and text entry.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keymap.Abort):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Next):
			return m, m.setFocus(m.focus + 1)
		case key.Matches(msg, m.keymap.Prev):
			return m, m.setFocus(m.focus - 1)
		case key.Matches(msg, m.keymap.Submit):
			if m.focus < numFields-1 {
				return m, m.setFocus(m.focus + 1)
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *FormModel) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (i + numFields) % numFields
	return m.inputs[m.focus].Focus()
}

// Input returns the raw answers typed so far.
func (m FormModel) Input() config.PromptInput {
	return config.PromptInput{
		Particles:   m.inputs[fieldParticles].Value(),
		Levels:      m.inputs[fieldLevels].Value(),
		TotalEnergy: m.inputs[fieldEnergy].Value(),
		Workers:     m.inputs[fieldWorkers].Value(),
	}
}

func (m FormModel) submit() (tea.Model, tea.Cmd) {
	cfg, err := m.Input().Apply(m.base)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.result = cfg
	m.submitted = true
	return m, tea.Quit
}

// View renders the form.
func (m FormModel) View() string {
	if m.submitted || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("canonsim: simulation parameters"))
	b.WriteString("\n\n")
	for i, in := range m.inputs {
		label := labelStyle.Render(fmt.Sprintf("%-14s", fieldLabels[i]))
		if i == m.focus {
			label = focusedStyle.Render(fmt.Sprintf("%-14s", fieldLabels[i]))
		}
		b.WriteString(label + in.View() + "\n")
	}
	b.WriteString(dimStyle.Render("Empty fields keep the placeholder; levels accept \"inf\"."))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + helpLine(m.keymap.Next, m.keymap.Submit, m.keymap.Abort))
	return panelStyle.Render(b.String()) + "\n"
}

// Prompt runs the form on the given terminal streams and returns the
// resulting configuration, or ErrAborted if the user cancelled.
func Prompt(cfg config.AppConfig, in io.Reader, out io.Writer) (config.AppConfig, error) {
	initStyles()
	p := tea.NewProgram(NewFormModel(cfg), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return cfg, fmt.Errorf("running prompt: %w", err)
	}
	m, ok := final.(FormModel)
	if !ok || m.aborted || !m.submitted {
		return cfg, ErrAborted
	}
	return m.result, nil
}
