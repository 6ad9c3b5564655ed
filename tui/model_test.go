package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/konveyor/task-monitor/dispatcher"
	"github.com/konveyor/task-monitor/monitor"
	taskprogress "github.com/konveyor/task-monitor/progress"
	"github.com/konveyor/task-monitor/progress/collector"
	"github.com/konveyor/task-monitor/progress/reporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	result, _ := m.Update(msg)
	next, ok := result.(Model)
	require.True(t, ok)
	return next
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func opened(title string) taskprogress.Event {
	return taskprogress.Event{Kind: taskprogress.KindOpened, Title: title, Indeterminate: true}
}

func TestModel_RendersOpenDisplay(t *testing.T) {
	m := NewModel(nil)
	assert.Empty(t, m.View())

	m = update(t, m, opened("Indexing"))
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindStatus, Message: "scanning"})
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindSubStatus, Message: "parser.go"})
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindMode})
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindProgress, Current: 1200, Total: 10000})
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindCancelEnabled, CancelEnabled: true})

	view := m.View()
	assert.Contains(t, view, "Indexing")
	assert.Contains(t, view, "scanning")
	assert.Contains(t, view, "parser.go")
	assert.Contains(t, view, "1,200/10,000")
	assert.Contains(t, view, "12%")
	assert.Contains(t, view, "[c] cancel")
	assert.InDelta(t, 0.12, m.fraction(), 0.0001)

	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindClosed})
	assert.Empty(t, m.View())
}

func TestModel_OpenedStartsAfresh(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, opened("first"))
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindStatus, Message: "old status"})
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindClosed})

	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindOpened, Title: "second", Current: 3, Total: 4})
	view := m.View()
	assert.Contains(t, view, "second")
	assert.Contains(t, view, "3/4")
	assert.NotContains(t, view, "old status")
}

func TestModel_HiddenProgressValue(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindOpened, Title: "quiet", Current: 5, Total: 10, HideValue: true})

	view := m.View()
	assert.NotContains(t, view, "5/10")
	assert.NotContains(t, view, "50%")

	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindShowValue})
	assert.Contains(t, m.View(), "5/10")
}

func TestModel_IndeterminateShowsSpinner(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, opened("Resolving"))

	view := m.View()
	assert.Contains(t, view, "working")
	assert.NotContains(t, view, "[c] cancel")
}

func TestModel_CancelKey(t *testing.T) {
	pressed := 0
	m := NewModel(func() { pressed++ })
	m = update(t, m, opened("t"))

	m = update(t, m, key("c"))
	assert.Equal(t, 0, pressed, "cancel is disabled until the monitor enables it")

	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindCancelEnabled, CancelEnabled: true})
	m = update(t, m, key("c"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 2, pressed)
}

func TestModel_PromptAnswers(t *testing.T) {
	for _, tc := range []struct {
		name string
		key  tea.KeyMsg
		want bool
	}{
		{"yes", key("y"), true},
		{"no", key("n"), false},
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pressed := 0
			m := NewModel(func() { pressed++ })
			m = update(t, m, opened("t"))
			m = update(t, m, taskprogress.Event{Kind: taskprogress.KindCancelEnabled, CancelEnabled: true})

			reply := make(chan bool, 1)
			m = update(t, m, promptMsg{title: "Cancel?", question: "Really?", reply: reply})
			assert.Contains(t, m.View(), "Cancel? Really? [y/n]")

			m = update(t, m, tc.key)
			assert.Equal(t, tc.want, <-reply)
			assert.Nil(t, m.prompt)
			assert.Equal(t, 0, pressed, "keys answer the prompt instead of cancelling")
		})
	}
}

func TestModel_ClosingDeclinesPrompt(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, opened("t"))
	reply := make(chan bool, 1)
	m = update(t, m, promptMsg{title: "Cancel?", question: "Really?", reply: reply})

	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindClosed})
	assert.False(t, <-reply)
	assert.Nil(t, m.prompt)
}

func TestModel_PromptWithdrawn(t *testing.T) {
	m := NewModel(nil)
	reply := make(chan bool, 1)
	m = update(t, m, promptMsg{title: "Cancel?", question: "Really?", reply: reply})

	m = update(t, m, promptDoneMsg{reply: make(chan bool, 1)})
	assert.NotNil(t, m.prompt, "withdrawing another prompt keeps this one")

	m = update(t, m, promptDoneMsg{reply: reply})
	assert.Nil(t, m.prompt)
}

func TestModel_Finished(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, opened("Build"))

	result, cmd := m.Update(taskprogress.Event{Kind: taskprogress.KindFinished, Message: "completed"})
	m = result.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "Build: completed")
}

func TestModel_FinishedWithoutOpening(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, taskprogress.Event{Kind: taskprogress.KindFinished, Title: "Quick", Message: "completed"})
	assert.Contains(t, m.View(), "Quick: completed")
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Equal(t, 22, m.bar.Width)

	m = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 10})
	assert.Equal(t, barWidth, m.bar.Width)
}

// recordingSender collects messages and can answer prompts.
type recordingSender struct {
	mu     sync.Mutex
	msgs   []tea.Msg
	answer *bool
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	if p, ok := msg.(promptMsg); ok && s.answer != nil {
		p.reply <- *s.answer
	}
}

func (s *recordingSender) messages() []tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tea.Msg{}, s.msgs...)
}

func TestTerminal_ForwardsUntilClosed(t *testing.T) {
	sender := &recordingSender{}
	term := NewTerminal(sender)

	events := make(chan taskprogress.Event, 3)
	events <- opened("t")
	events <- taskprogress.Event{Kind: taskprogress.KindClosed, Title: "t"}
	events <- taskprogress.Event{Kind: taskprogress.KindFinished, Title: "t", Message: "completed"}
	close(events)
	term.Forward(context.Background(), events)

	assert.Equal(t, []tea.Msg{
		opened("t"),
		taskprogress.Event{Kind: taskprogress.KindClosed, Title: "t"},
		taskprogress.Event{Kind: taskprogress.KindFinished, Title: "t", Message: "completed"},
	}, sender.messages())
}

func TestTerminal_ForwardStopsWithContext(t *testing.T) {
	term := NewTerminal(&recordingSender{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		term.Forward(ctx, make(chan taskprogress.Event))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward did not return after the context ended")
	}
}

func TestTerminal_AskYesNo(t *testing.T) {
	yes := true
	term := NewTerminal(&recordingSender{answer: &yes})
	assert.True(t, term.AskYesNo(context.Background(), "Cancel?", "Really?"))
}

func TestTerminal_AskYesNoContextDone(t *testing.T) {
	sender := &recordingSender{}
	term := NewTerminal(sender)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, term.AskYesNo(ctx, "Cancel?", "Really?"))

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	prompt := msgs[0].(promptMsg)
	assert.Equal(t, promptDoneMsg{reply: prompt.reply}, msgs[1])
}

// A monitor drives the model through the same pipeline the command uses:
// surface, collector, hub, channel reporter, terminal.
func TestTerminal_DrivenByMonitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := dispatcher.New()
	go d.Run(ctx)
	defer d.Close()

	col := collector.New()
	events := reporter.NewChannelReporter(ctx)
	hub, err := taskprogress.New(
		taskprogress.WithContext(ctx),
		taskprogress.WithCollectors(col),
		taskprogress.WithReporters(events),
	)
	require.NoError(t, err)

	surface := taskprogress.NewSurface(col)
	m, err := monitor.New(d, monitor.Task{Title: "Build", Modal: true, HasProgress: true},
		monitor.WithDisplay(surface))
	require.NoError(t, err)
	surface.SetMonitorID(m.ID())

	sender := &recordingSender{}
	forwarded := make(chan struct{})
	go func() {
		NewTerminal(sender).Forward(ctx, events.Events())
		close(forwarded)
	}()

	m.Initialize(2)
	m.SetShowProgressValue(false)
	require.NoError(t, m.Show(ctx, 0))
	m.SetProgress(1)
	m.TaskProcessed()
	m.Dispose()
	require.NoError(t, d.RunNow(ctx, func(context.Context) {}))
	col.Report(taskprogress.Event{Kind: taskprogress.KindFinished, Monitor: m.ID(), Title: "Build", Message: "completed"})
	hub.Close()
	events.Close()
	<-forwarded

	model := NewModel(nil)
	for _, msg := range sender.messages() {
		model = update(t, model, msg)
	}
	assert.Contains(t, model.View(), "Build: completed")
	assert.True(t, model.hideValue)
}
