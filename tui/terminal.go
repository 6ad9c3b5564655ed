package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/konveyor/task-monitor/monitor"
	"github.com/konveyor/task-monitor/progress"
)

var _ monitor.Prompter = (*Terminal)(nil)

// Sender is the part of *tea.Program that Terminal needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Terminal connects a running bubbletea program to the rest of the process:
// it feeds the program display events and asks it questions.
type Terminal struct {
	program Sender
}

func NewTerminal(program Sender) *Terminal {
	return &Terminal{program: program}
}

// Forward sends every event to the program, in order, until events is closed
// or ctx ends. It is meant to range over a reporter.ChannelReporter.
func (t *Terminal) Forward(ctx context.Context, events <-chan progress.Event) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			t.program.Send(event)
		case <-ctx.Done():
			return
		}
	}
}

// AskYesNo shows the question in the program and blocks until the user
// answers or ctx ends, which counts as no.
func (t *Terminal) AskYesNo(ctx context.Context, title, question string) bool {
	reply := make(chan bool, 1)
	t.program.Send(promptMsg{title: title, question: question, reply: reply})
	select {
	case yes := <-reply:
		return yes
	case <-ctx.Done():
		t.program.Send(promptDoneMsg{reply: reply})
		return false
	}
}
