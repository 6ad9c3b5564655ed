package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/konveyor/task-monitor/monitor"
)

const (
	outcomeCompleted = "completed"
	outcomeCancelled = "cancelled"
)

// simulateWork stands in for a long running task. It spends a short while in
// indeterminate mode, then processes steps items, each taking interval.
func simulateWork(ctx context.Context, m *monitor.Monitor, steps int, interval time.Duration) error {
	cancelled := make(chan struct{})
	var once sync.Once
	remove := m.OnCancelled(func() {
		once.Do(func() { close(cancelled) })
	})
	defer remove()

	wait := func(d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return m.CheckCancelled()
		case <-cancelled:
			return monitor.ErrCancelled
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.SetIndeterminate(true)
	m.SetMessage("preparing")
	if err := wait(3 * interval); err != nil {
		return err
	}

	m.SetIndeterminate(false)
	m.Initialize(int64(steps))
	sub := m.SecondaryMonitor()
	for i := 1; i <= steps; i++ {
		m.SetMessage(fmt.Sprintf("processing item %d of %d", i, steps))
		sub.SetMessage(fmt.Sprintf("item-%03d", i))
		if err := wait(interval); err != nil {
			return err
		}
		m.IncrementProgress(1)
	}
	m.SetMessage("done")
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeCompleted
	case errors.Is(err, monitor.ErrCancelled), errors.Is(err, context.Canceled):
		return outcomeCancelled
	default:
		return fmt.Sprintf("failed: %s", err)
	}
}
