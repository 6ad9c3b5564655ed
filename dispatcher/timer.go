package dispatcher

import (
	"context"
	"sync/atomic"
	"time"
)

// Timer is a cancellable handle for a task scheduled with ScheduleOnce.
type Timer struct {
	timer   *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

// ScheduleOnce runs task on the dispatcher once delay has elapsed.
//
// The returned Timer can be stopped at any point. A stopped timer's task never
// runs, even if the delay already elapsed and the task is sitting in the queue.
func (d *Dispatcher) ScheduleOnce(delay time.Duration, task Task) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(delay, func() {
		if t.stopped.Load() {
			return
		}
		err := d.Post(func(ctx context.Context) {
			if t.stopped.Load() {
				return
			}
			t.fired.Store(true)
			task(ctx)
		})
		if err != nil {
			d.log.V(5).Info("dropping scheduled task", "reason", err.Error())
		}
	})
	return t
}

// Stop cancels the timer. It reports whether the call prevented the task from
// running; it returns false if the task already ran or the timer was stopped.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	if t.stopped.Swap(true) {
		return false
	}
	t.timer.Stop()
	return !t.fired.Load()
}

// Fired reports whether the scheduled task has started running.
func (t *Timer) Fired() bool {
	return t != nil && t.fired.Load()
}
