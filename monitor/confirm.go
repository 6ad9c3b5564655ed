package monitor

import (
	"context"
	"fmt"

	"github.com/konveyor/task-monitor/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// CancelPressed is called by a display when the user activates its cancel
// affordance. The request is confirmed with the Prompter on the dispatcher and
// only then turned into a cancellation, provided the monitor has not been
// reset for another run in the meantime.
//
// CancelPressed never blocks and may be called from any goroutine.
func (m *Monitor) CancelPressed() {
	m.mu.Lock()
	if m.run.disposed || !m.run.progress.cancelEnabled || m.run.confirming {
		m.mu.Unlock()
		return
	}
	m.run.confirming = true
	m.mu.Unlock()

	if err := m.dispatcher.Post(m.confirmCancel); err != nil {
		m.mu.Lock()
		m.run.confirming = false
		m.mu.Unlock()
		m.log.V(3).Info("unable to confirm cancel request", "reason", err.Error())
	}
}

// confirmCancel runs on the dispatcher. The prompt may keep the dispatcher busy
// until the user answers or the run completes.
func (m *Monitor) confirmCancel(ctx context.Context) {
	ctx, span := tracing.StartNewSpan(ctx, "monitor.confirm_cancel",
		attribute.String("monitor.id", m.id))
	defer span.End()

	m.mu.Lock()
	generation := m.run.generation
	done := m.run.done
	skip := m.run.disposed || m.run.completed || m.run.progress.cancelled
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.run.confirming = false
		m.mu.Unlock()
	}()
	if skip {
		return
	}
	span.SetAttributes(attribute.Int64("monitor.generation", int64(generation)))

	// a question about a run that has finished is withdrawn
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()

	confirmed := m.prompter.AskYesNo(ctx, cancelPromptTitle, m.renderCancelQuestion())
	span.SetAttributes(attribute.Bool("monitor.confirmed", confirmed))
	if !confirmed {
		m.log.V(3).Info("cancel request declined", "generation", generation)
		return
	}
	if !m.cancel(generation, true) {
		m.log.V(3).Info("discarding cancel confirmation", "generation", generation, "current", m.Generation())
	}
}

func (m *Monitor) renderCancelQuestion() string {
	question, err := m.cancelQuestion.Render(map[string]string{"title": m.task.Title})
	if err != nil {
		m.log.Error(err, "unable to render cancel question")
		return fmt.Sprintf("Do you really want to cancel %q?", m.task.Title)
	}
	return question
}
