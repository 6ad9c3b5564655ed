// Package dispatcher provides the single-threaded presentation dispatcher used by
// task monitors.
//
// All display mutation happens inside tasks run by a Dispatcher. Worker
// goroutines never touch a display directly; they submit closures with Post,
// RunOrPost or RunNow, or schedule them for later with ScheduleOnce. Tasks run
// one at a time, in the order they were submitted.
//
// Basic usage:
//
//	d := dispatcher.New(dispatcher.WithLogger(log))
//	go d.Run(ctx)
//
//	d.Post(func(ctx context.Context) {
//	    display.SetStatusText("working")
//	})
//
// A task receives a context that identifies the dispatcher it runs on. Passing
// that context back into RunOrPost or RunNow runs the nested task inline rather
// than queueing it behind the current one, which would deadlock RunNow.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

var (
	// ErrClosed is returned when submitting work to a dispatcher that has stopped.
	ErrClosed = errors.New("dispatcher closed")

	// ErrAlreadyRunning is returned by Run when another goroutine is already
	// running the dispatch loop.
	ErrAlreadyRunning = errors.New("dispatcher already running")
)

// Task is a unit of work executed on the dispatcher goroutine.
//
// The context passed to a task is marked as a dispatcher context; see
// OnDispatcher.
type Task func(ctx context.Context)

// Dispatcher runs tasks one at a time on a single goroutine in FIFO order.
//
// Post never blocks, so workers reporting at arbitrary rates are never stalled by
// the presentation side. The queue is unbounded; producers that can flood it
// (message updates) coalesce on their side before posting.
type Dispatcher struct {
	log logr.Logger

	mu      sync.Mutex
	queue   []Task
	running bool
	closed  bool

	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Option configures a Dispatcher.
type Option func(d *Dispatcher)

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(log logr.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

type dispatcherKey struct{}

// New creates a dispatcher. Nothing runs until Run is called.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:     logr.Discard(),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes queued tasks on the calling goroutine until ctx is cancelled or
// Close is called. Tasks still queued at that point are dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()

	defer d.Close()

	taskCtx := context.WithValue(ctx, dispatcherKey{}, d)
	for {
		task, ok := d.next()
		if ok {
			d.runTask(taskCtx, task)
			continue
		}
		select {
		case <-d.wake:
		case <-d.stopped:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Close stops the dispatcher. Run returns, pending tasks are dropped and
// callers blocked in RunNow are released with ErrClosed. Close is idempotent.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		dropped := len(d.queue)
		d.queue = nil
		d.mu.Unlock()
		close(d.stopped)
		if dropped > 0 {
			d.log.V(3).Info("dispatcher closed with pending tasks", "dropped", dropped)
		}
	})
}

// Done returns a channel that is closed once the dispatcher has stopped.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.stopped
}

// Post queues task to run on the dispatcher. It never blocks.
func (d *Dispatcher) Post(task Task) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.queue = append(d.queue, task)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// RunOrPost runs task immediately when ctx is a context handed out by this
// dispatcher, otherwise it queues the task.
func (d *Dispatcher) RunOrPost(ctx context.Context, task Task) error {
	if d.OnDispatcher(ctx) {
		d.runTask(ctx, task)
		return nil
	}
	return d.Post(task)
}

// RunNow runs task on the dispatcher and waits for it to finish.
//
// When called from the dispatcher itself the task runs inline. Otherwise the
// caller blocks until the task has run, ctx is done, or the dispatcher stops.
func (d *Dispatcher) RunNow(ctx context.Context, task Task) error {
	if d.OnDispatcher(ctx) {
		d.runTask(ctx, task)
		return nil
	}

	finished := make(chan struct{})
	err := d.Post(func(taskCtx context.Context) {
		defer close(finished)
		task(taskCtx)
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		// the task may have completed right before shutdown
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// OnDispatcher reports whether ctx was handed to a task by this dispatcher.
func (d *Dispatcher) OnDispatcher(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	owner, ok := ctx.Value(dispatcherKey{}).(*Dispatcher)
	return ok && owner == d
}

func (d *Dispatcher) next() (Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, false
	}
	task := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return task, true
}

func (d *Dispatcher) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error(fmt.Errorf("%v", r), "recovered panic in dispatcher task")
		}
	}()
	task(ctx)
}
