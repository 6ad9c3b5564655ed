package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/konveyor/task-monitor/monitor"
	"github.com/konveyor/task-monitor/progress"
	"github.com/konveyor/task-monitor/progress/collector"
	"github.com/konveyor/task-monitor/progress/reporter"
	"github.com/konveyor/task-monitor/tui"
	"golang.org/x/sync/errgroup"
)

// frontend is where a monitor presents itself and asks its questions.
type frontend interface {
	display() monitor.Display
	prompter() monitor.Prompter
	// start begins presenting m. Long running parts join g.
	start(g *errgroup.Group, m *monitor.Monitor)
	// finish shows the outcome and waits for pending output.
	finish(m *monitor.Monitor, outcome string)
	// abort releases resources when no monitor could be created.
	abort()
}

// pipeline carries a monitor's display events to reporters: the monitor draws
// on the surface, the surface reports to the collector and the hub fans the
// collected events out.
type pipeline struct {
	surface   *progress.Surface
	collector progress.Collector
	hub       *progress.Progress
}

func newPipeline(ctx context.Context, reporters ...progress.Reporter) (*pipeline, error) {
	c := newCollector()
	hub, err := progress.New(
		progress.WithContext(ctx),
		progress.WithReporters(reporters...),
		progress.WithCollectors(c),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to start progress reporting: %w", err)
	}
	return &pipeline{
		surface:   progress.NewSurface(c),
		collector: c,
		hub:       hub,
	}, nil
}

// newCollector throttles progress events unless --throttle is 0, in which
// case the monitor's own refresh interval is the only limit.
func newCollector() progress.Collector {
	if throttle <= 0 {
		return collector.New()
	}
	return collector.NewThrottledCollector(throttle)
}

// finish reports the outcome and delivers everything collected so far.
func (p *pipeline) finish(m *monitor.Monitor, outcome string) {
	p.collector.Report(progress.Event{
		Kind:    progress.KindFinished,
		Monitor: m.ID(),
		Title:   m.Task().Title,
		Message: outcome,
	})
	p.hub.Close()
}

// reporterFrontend renders display events with one of the progress reporters
// and asks questions on the terminal.
type reporterFrontend struct {
	*pipeline
	line *progress.LinePrompter
	out  io.Closer
}

func newReporterFrontend(ctx context.Context, log logr.Logger) (*reporterFrontend, error) {
	r, out, err := createProgressReporter(log)
	if err != nil {
		return nil, err
	}
	p, err := newPipeline(ctx, r)
	if err != nil {
		if out != nil {
			out.Close()
		}
		return nil, err
	}
	return &reporterFrontend{
		pipeline: p,
		line:     progress.NewLinePrompter(os.Stdin, os.Stderr),
		out:      out,
	}, nil
}

func (f *reporterFrontend) display() monitor.Display   { return f.surface }
func (f *reporterFrontend) prompter() monitor.Prompter { return f.line }

func (f *reporterFrontend) start(g *errgroup.Group, m *monitor.Monitor) {
	f.surface.SetMonitorID(m.ID())
}

func (f *reporterFrontend) finish(m *monitor.Monitor, outcome string) {
	f.pipeline.finish(m, outcome)
	if f.out != nil {
		f.out.Close()
	}
}

func (f *reporterFrontend) abort() {
	f.hub.Close()
	if f.out != nil {
		f.out.Close()
	}
}

// createProgressReporter creates a progress reporter based on CLI flags. The
// returned closer is nil unless output goes to a file.
func createProgressReporter(log logr.Logger) (progress.Reporter, io.Closer, error) {
	var writer io.Writer
	var closer io.Closer
	switch progressOutput {
	case "", "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		file, err := os.Create(progressOutput)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to create progress output file %s: %w", progressOutput, err)
		}
		writer, closer = file, file
		log.V(3).Info("writing display events to file", "file", progressOutput)
	}

	switch progressFormat {
	case "json":
		return reporter.NewJSONReporter(writer), closer, nil
	case "text":
		return reporter.NewTextReporter(writer), closer, nil
	default:
		return reporter.NewProgressBarReporter(writer), closer, nil
	}
}

// tuiFrontend runs a bubbletea program fed by a channel reporter. The program
// is also where cancel requests are confirmed.
type tuiFrontend struct {
	*pipeline
	program   *tea.Program
	terminal  *tui.Terminal
	events    *reporter.ChannelReporter
	monitor   atomic.Pointer[monitor.Monitor]
	forwarded chan struct{}
	exited    chan struct{}
}

func newTUIFrontend(ctx context.Context, log logr.Logger) (*tuiFrontend, error) {
	events := reporter.NewChannelReporter(ctx, reporter.WithLogger(log.WithName("tui")))
	p, err := newPipeline(ctx, events)
	if err != nil {
		events.Close()
		return nil, err
	}
	f := &tuiFrontend{
		pipeline:  p,
		events:    events,
		forwarded: make(chan struct{}),
		exited:    make(chan struct{}),
	}
	model := tui.NewModel(func() {
		if m := f.monitor.Load(); m != nil {
			m.CancelPressed()
		}
	})
	f.program = tea.NewProgram(model, tea.WithOutput(os.Stderr))
	f.terminal = tui.NewTerminal(f.program)
	return f, nil
}

func (f *tuiFrontend) display() monitor.Display   { return f.surface }
func (f *tuiFrontend) prompter() monitor.Prompter { return f.terminal }

func (f *tuiFrontend) start(g *errgroup.Group, m *monitor.Monitor) {
	f.surface.SetMonitorID(m.ID())
	f.monitor.Store(m)
	g.Go(func() error {
		defer close(f.exited)
		if _, err := f.program.Run(); err != nil {
			return fmt.Errorf("terminal ui failed: %w", err)
		}
		return nil
	})
	go func() {
		defer close(f.forwarded)
		f.terminal.Forward(context.Background(), f.events.Events())
	}()
}

// finish delivers the finished event, which ends the program, and waits for
// the program to exit. Quit covers a finished event that could not be
// delivered.
func (f *tuiFrontend) finish(m *monitor.Monitor, outcome string) {
	f.pipeline.finish(m, outcome)
	f.events.Close()
	<-f.forwarded
	f.program.Quit()
	<-f.exited
}

func (f *tuiFrontend) abort() {
	f.hub.Close()
	f.events.Close()
}
