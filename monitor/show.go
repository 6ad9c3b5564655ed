package monitor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/konveyor/task-monitor/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Show presents the display once delay has passed, unless the task completes
// first. Delays above the configured maximum are clamped to it.
//
// For a modal task Show blocks: it waits up to delay for the task to complete
// and returns without ever presenting anything if it does. Otherwise the
// display is opened on the dispatcher before Show returns. If ctx ends while
// waiting, Show returns ctx.Err() and nothing is shown. When called from a
// dispatcher task, pass that task's context so the display opens inline.
//
// For a non-modal task Show returns at once and a timer presents the display
// later, re-checking completion when it fires. Calling Show again replaces a
// timer that has not fired yet.
//
// Show on a disposed monitor does nothing.
func (m *Monitor) Show(ctx context.Context, delay time.Duration) error {
	delay = m.clampDelay(delay)
	ctx, span := tracing.StartNewSpan(ctx, "monitor.show",
		attribute.String("monitor.id", m.id),
		attribute.Bool("monitor.modal", m.task.Modal),
		attribute.Int64("monitor.delay_ms", delay.Milliseconds()),
	)
	defer span.End()

	m.mu.Lock()
	if m.run.disposed {
		m.mu.Unlock()
		return nil
	}
	m.run.started = true
	m.mu.Unlock()

	if m.task.Modal {
		return m.showBlocking(ctx, delay)
	}
	m.showDeferred(delay)
	return nil
}

func (m *Monitor) clampDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if delay > m.maxDelay {
		return m.maxDelay
	}
	return delay
}

func (m *Monitor) showBlocking(ctx context.Context, delay time.Duration) error {
	if err := m.waitForCompletion(ctx, delay); err != nil {
		return err
	}
	if m.IsCompleted() {
		m.log.V(5).Info("task completed before the display was needed")
		return nil
	}
	// The posted open and a caller giving up race for the same flag: whoever
	// flips it first decides whether the display appears.
	var decided atomic.Bool
	err := m.dispatcher.RunNow(ctx, func(taskCtx context.Context) {
		if decided.CompareAndSwap(false, true) {
			m.open(taskCtx)
		}
	})
	if err == nil {
		return nil
	}
	if !decided.CompareAndSwap(false, true) {
		// the display is opening already
		return nil
	}
	m.log.V(5).Info("abandoned blocking show", "reason", err.Error())
	return fmt.Errorf("unable to show task monitor: %w", err)
}

// waitForCompletion gives a quick task the chance to finish before anything is
// shown. Completion is re-checked every poll interval; the run's done channel
// cuts the wait short as soon as the task finishes.
func (m *Monitor) waitForCompletion(ctx context.Context, delay time.Duration) error {
	if m.IsCompleted() || delay <= 0 {
		return nil
	}
	done := m.Done()

	deadline := time.NewTimer(delay)
	defer deadline.Stop()
	poll := time.NewTicker(m.pollInterval)
	defer poll.Stop()

	for !m.IsCompleted() {
		select {
		case <-done:
			return nil
		case <-deadline.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
		}
	}
	return nil
}

func (m *Monitor) showDeferred(delay time.Duration) {
	m.mu.Lock()
	if m.run.disposed {
		m.mu.Unlock()
		return
	}
	previous := m.run.showTimer
	generation := m.run.generation
	m.run.showTimer = m.dispatcher.ScheduleOnce(delay, func(ctx context.Context) {
		m.mu.Lock()
		stale := m.run.generation != generation
		completed := m.run.completed
		m.mu.Unlock()
		switch {
		case stale:
			m.log.V(5).Info("dropping show scheduled for an earlier run", "generation", generation)
			return
		case completed:
			m.log.V(5).Info("task completed before the display was needed")
			return
		}
		m.open(ctx)
	})
	m.mu.Unlock()

	if previous.Stop() {
		m.log.V(7).Info("replaced pending show")
	}
}

// open presents the display. It runs on the dispatcher and is a no-op when
// the display is already up, the monitor is disposed or the task completed.
func (m *Monitor) open(ctx context.Context) {
	m.mu.Lock()
	if m.run.disposed || m.run.displayed || m.run.completed {
		m.mu.Unlock()
		return
	}
	m.run.displayed = true
	mode := m.run.progress.widgetMode()
	m.run.shownMode = mode
	value, maximum := m.run.progress.value, m.run.progress.maximum
	m.run.lastValue, m.run.lastMaximum = value, maximum
	cancelEnabled := m.run.progress.cancelEnabled
	showValue := !m.run.progress.hideValue
	m.mu.Unlock()

	m.log.V(3).Info("showing task monitor", "mode", mode.String())
	m.display.SetCancelEnabled(cancelEnabled)
	m.display.SetShowProgressValue(showValue)
	m.display.SetProgressWidget(mode)
	if mode == WidgetDeterminate {
		m.display.SetProgress(value, maximum)
	}
	m.display.Repack()
	m.display.Open(Dialog{
		Title:     m.task.Title,
		Modal:     m.task.Modal,
		CanCancel: m.task.CanCancel,
	})
	m.scheduleRefresh()
}

// closeDisplay dismisses a visible display. Runs on the dispatcher.
func (m *Monitor) closeDisplay(ctx context.Context) {
	m.mu.Lock()
	if !m.run.displayed {
		m.mu.Unlock()
		return
	}
	m.run.displayed = false
	refreshTimer := m.run.refreshTimer
	m.run.refreshTimer = nil
	m.mu.Unlock()

	refreshTimer.Stop()
	m.log.V(3).Info("closing task monitor")
	m.display.Close()
}

// applyWidgetMode swaps the visible widget when the progress state calls for a
// different one. Runs on the dispatcher.
func (m *Monitor) applyWidgetMode() {
	m.mu.Lock()
	if !m.run.displayed {
		m.mu.Unlock()
		return
	}
	mode := m.run.progress.widgetMode()
	if mode == m.run.shownMode {
		m.mu.Unlock()
		return
	}
	m.run.shownMode = mode
	value, maximum := m.run.progress.value, m.run.progress.maximum
	m.run.lastValue, m.run.lastMaximum = value, maximum
	m.mu.Unlock()

	m.log.V(5).Info("switching progress widget", "mode", mode.String())
	m.display.SetProgressWidget(mode)
	if mode == WidgetDeterminate {
		m.display.SetProgress(value, maximum)
	}
	m.display.Repack()
}

func (m *Monitor) scheduleRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.run.displayed || m.run.disposed {
		return
	}
	m.run.refreshTimer = m.dispatcher.ScheduleOnce(m.refreshInterval, m.refresh)
}

// refresh pushes progress to a visible determinate display, then reschedules
// itself. Progress setters never touch the display; this is the only path.
func (m *Monitor) refresh(ctx context.Context) {
	m.mu.Lock()
	if !m.run.displayed || m.run.disposed {
		m.mu.Unlock()
		return
	}
	value, maximum := m.run.progress.value, m.run.progress.maximum
	changed := m.run.shownMode == WidgetDeterminate &&
		(value != m.run.lastValue || maximum != m.run.lastMaximum)
	if changed {
		m.run.lastValue, m.run.lastMaximum = value, maximum
	}
	m.mu.Unlock()

	if changed {
		m.display.SetProgress(value, maximum)
	}
	m.scheduleRefresh()
}
