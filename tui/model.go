// Package tui renders a task monitor in the terminal with bubbletea.
//
// Model is the bubbletea model, rebuilt from the progress.Event stream a
// progress.Surface produces. Terminal forwards that stream to a running
// tea.Program and implements monitor.Prompter on top of it.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	taskprogress "github.com/konveyor/task-monitor/progress"
)

const barWidth = 40

// Model is the bubbletea model of one monitor's display.
type Model struct {
	onCancel func()
	theme    Theme

	open          bool
	title         string
	status        string
	subStatus     string
	indeterminate bool
	value         int64
	maximum       int64
	cancelEnabled bool
	hideValue     bool
	prompt        *promptMsg
	outcome       string

	bar     progress.Model
	spinner spinner.Model
}

// NewModel creates the model. onCancel is called when the user asks to cancel
// while cancelling is enabled; it is normally the monitor's CancelPressed.
func NewModel(onCancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	theme := DefaultTheme()
	s.Style = theme.Status

	return Model{
		onCancel:      onCancel,
		theme:         theme,
		indeterminate: true,
		bar:           progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		spinner:       s,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > barWidth {
			width = barWidth
		}
		if width > 0 {
			m.bar.Width = width
		}

	case taskprogress.Event:
		return m.apply(msg)

	case promptMsg:
		// a newer question replaces an unanswered one
		m.answerPrompt(false)
		m.prompt = &msg
	case promptDoneMsg:
		if m.prompt != nil && m.prompt.reply == msg.reply {
			m.prompt = nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply updates the model for one display event. The finished event ends the
// program.
func (m Model) apply(event taskprogress.Event) (tea.Model, tea.Cmd) {
	if event.Title != "" {
		m.title = event.Title
	}
	switch event.Kind {
	case taskprogress.KindOpened:
		m.open = true
		m.status, m.subStatus = "", ""
		m.indeterminate = event.Indeterminate
		m.value, m.maximum = event.Current, event.Total
		m.cancelEnabled = event.CancelEnabled
		m.hideValue = event.HideValue
	case taskprogress.KindStatus:
		m.status = event.Message
	case taskprogress.KindSubStatus:
		m.subStatus = event.Message
	case taskprogress.KindMode:
		m.indeterminate = event.Indeterminate
	case taskprogress.KindProgress:
		m.indeterminate = false
		m.value, m.maximum = event.Current, event.Total
		m.hideValue = event.HideValue
	case taskprogress.KindCancelEnabled:
		m.cancelEnabled = event.CancelEnabled
	case taskprogress.KindShowValue:
		m.hideValue = event.HideValue
	case taskprogress.KindClosed:
		m.open = false
		m.answerPrompt(false)
	case taskprogress.KindFinished:
		m.open = false
		m.answerPrompt(false)
		m.outcome = event.Message
		if m.outcome == "" {
			m.outcome = "finished"
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		switch msg.String() {
		case "y", "Y":
			m.answerPrompt(true)
		case "n", "N", "esc", "enter":
			m.answerPrompt(false)
		}
		return m, nil
	}

	switch msg.String() {
	case "c", "esc", "ctrl+c":
		if m.cancelEnabled && m.onCancel != nil {
			m.onCancel()
		}
	}
	return m, nil
}

// answerPrompt replies to the open question, if any, and clears it.
func (m *Model) answerPrompt(yes bool) {
	if m.prompt == nil {
		return
	}
	select {
	case m.prompt.reply <- yes:
	default:
	}
	m.prompt = nil
}

func (m Model) View() string {
	if m.outcome != "" {
		return m.theme.Done.Render(fmt.Sprintf("%s: %s", m.title, m.outcome)) + "\n"
	}
	if !m.open {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.title))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.theme.Status.Render(m.status))
		b.WriteString("\n")
	}
	if m.subStatus != "" {
		b.WriteString(m.theme.Dim.Render(m.subStatus))
		b.WriteString("\n")
	}

	if !m.indeterminate {
		m.bar.ShowPercentage = !m.hideValue
		b.WriteString(m.bar.ViewAs(m.fraction()))
		if m.maximum > 0 && !m.hideValue {
			b.WriteString(m.theme.Dim.Render(fmt.Sprintf("  %s/%s",
				humanize.Comma(m.value), humanize.Comma(m.maximum))))
		}
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.Dim.Render(" working"))
	}
	b.WriteString("\n")

	if m.prompt != nil {
		b.WriteString(m.theme.Prompt.Render(fmt.Sprintf("%s %s [y/n]", m.prompt.title, m.prompt.question)))
		b.WriteString("\n")
	} else if m.cancelEnabled {
		b.WriteString(m.theme.Cancel.Render("[c] cancel"))
		b.WriteString("\n")
	}
	return m.theme.Box.Render(strings.TrimSuffix(b.String(), "\n")) + "\n"
}

func (m Model) fraction() float64 {
	if m.maximum <= 0 {
		return 0
	}
	f := float64(m.value) / float64(m.maximum)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
