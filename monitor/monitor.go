// Package monitor coordinates a progress and cancellation display for a task
// that runs on a worker goroutine while its display is driven from a
// single-threaded dispatcher.
//
// A Monitor decides whether and when the display becomes visible, forwards the
// newest status text without flooding the dispatcher, asks the user to confirm
// a cancel request and drops that confirmation if the monitor has since been
// reset for another run.
//
// Basic usage:
//
//	d := dispatcher.New()
//	go d.Run(ctx)
//
//	m, err := monitor.New(d, monitor.Task{
//	    Title:       "Indexing",
//	    CanCancel:   true,
//	    HasProgress: true,
//	}, monitor.WithDisplay(display))
//	if err != nil {
//	    return err
//	}
//	defer m.Dispose()
//
//	go func() {
//	    defer m.TaskProcessed()
//	    m.Initialize(int64(len(files)))
//	    for _, f := range files {
//	        if err := m.CheckCancelled(); err != nil {
//	            return
//	        }
//	        m.SetMessage(f)
//	        index(f)
//	        m.IncrementProgress(1)
//	    }
//	}()
//
//	m.Show(ctx, 500*time.Millisecond)
//
// Thread Safety:
// All Monitor methods are safe for concurrent use. State shared between the
// worker and the dispatcher lives behind one mutex that is only held for field
// reads and writes; display calls are always made from the dispatcher with the
// mutex released.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/konveyor/task-monitor/dispatcher"
)

var (
	_ TaskMonitor = (*Monitor)(nil)
	_ TaskMonitor = (*SecondaryMonitor)(nil)
	_ TaskMonitor = Noop{}
)

// Monitor is the coordinator for one task's display. It can be reused for
// several runs through Reset.
type Monitor struct {
	id              string
	task            Task
	dispatcher      *dispatcher.Dispatcher
	display         Display
	prompter        Prompter
	log             logr.Logger
	maxDelay        time.Duration
	pollInterval    time.Duration
	refreshInterval time.Duration
	cancelQuestion  *mustache.Template

	mu  sync.Mutex
	run runState
}

// runState is everything shared between the worker and the dispatcher.
type runState struct {
	generation uint64
	started    bool
	completed  bool
	disposed   bool
	confirming bool
	claimed    bool
	done       chan struct{}

	progress  progressState
	pending   pendingMessages
	listeners listenerSet
	secondary *SecondaryMonitor

	// owned by the dispatcher, kept here so Dispose can reach them
	displayed    bool
	shownMode    WidgetMode
	lastValue    int64
	lastMaximum  int64
	showTimer    *dispatcher.Timer
	refreshTimer *dispatcher.Timer
}

// New creates a monitor for task whose display is driven by d.
func New(d *dispatcher.Dispatcher, task Task, opts ...Option) (*Monitor, error) {
	validationErrors := []error{}
	if d == nil {
		validationErrors = append(validationErrors, fmt.Errorf("dispatcher must not be nil"))
	}

	o := options{
		display:         nopDisplay{},
		prompter:        AutoConfirm,
		maxDelay:        DefaultMaxDelay,
		pollInterval:    DefaultPollInterval,
		refreshInterval: DefaultRefreshInterval,
	}
	for _, apply := range opts {
		if err := apply(&o); err != nil {
			validationErrors = append(validationErrors, err)
		}
	}
	if len(validationErrors) > 0 {
		return nil, fmt.Errorf("unable to create task monitor: %w", errors.Join(validationErrors...))
	}

	if o.cancelQuestion == nil {
		tmpl, err := mustache.ParseString(DefaultCancelQuestion)
		if err != nil {
			return nil, fmt.Errorf("unable to parse default cancel question: %w", err)
		}
		o.cancelQuestion = tmpl
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	log := o.log
	if log.IsZero() {
		log = logr.Discard()
	}

	m := &Monitor{
		id:              o.id,
		task:            task,
		dispatcher:      d,
		display:         o.display,
		prompter:        o.prompter,
		log:             log.WithValues("monitor", o.id, "title", task.Title),
		maxDelay:        o.maxDelay,
		pollInterval:    o.pollInterval,
		refreshInterval: o.refreshInterval,
		cancelQuestion:  o.cancelQuestion,
	}
	m.run.done = make(chan struct{})
	m.run.progress.hasProgress = task.HasProgress
	m.run.progress.cancelEnabled = task.CanCancel
	m.log.V(5).Info("created task monitor", "modal", task.Modal, "hasProgress", task.HasProgress, "canCancel", task.CanCancel)
	return m, nil
}

// ID returns the identifier that tags this monitor's logs and spans.
func (m *Monitor) ID() string {
	return m.id
}

// Task returns the task description the monitor was created with.
func (m *Monitor) Task() Task {
	return m.task
}

// Initialize resets progress to zero with the given maximum and, if the
// display is showing the activity widget, swaps in a progress bar. It does
// nothing while the task is indeterminate.
func (m *Monitor) Initialize(max int64) {
	m.mu.Lock()
	applied := m.run.progress.initialize(max)
	m.mu.Unlock()
	if !applied {
		m.log.V(7).Info("ignoring initialize on indeterminate monitor", "max", max)
		return
	}
	m.postWidgetUpdate()
}

func (m *Monitor) SetProgress(value int64) {
	m.mu.Lock()
	m.run.progress.setProgress(value)
	m.mu.Unlock()
}

func (m *Monitor) IncrementProgress(amount int64) {
	m.mu.Lock()
	m.run.progress.incrementProgress(amount)
	m.mu.Unlock()
}

func (m *Monitor) Progress() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.progress.value
}

func (m *Monitor) SetMaximum(max int64) {
	m.mu.Lock()
	m.run.progress.setMaximum(max)
	m.mu.Unlock()
}

func (m *Monitor) Maximum() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.progress.maximum
}

// Percent returns progress as a percentage of the maximum, clamped to 0–100.
func (m *Monitor) Percent() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.progress.percent()
}

// SetIndeterminate switches the display between a progress bar and an
// activity widget. Indeterminate mode survives later Initialize calls, so
// lower level code cannot flip a task its owner marked indeterminate.
func (m *Monitor) SetIndeterminate(indeterminate bool) {
	m.mu.Lock()
	m.run.progress.setIndeterminate(indeterminate)
	m.mu.Unlock()
	m.postWidgetUpdate()
}

func (m *Monitor) IsIndeterminate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.progress.indeterminate
}

// WidgetMode returns the widget the display uses, or would use, for the
// current progress state.
func (m *Monitor) WidgetMode() WidgetMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.progress.widgetMode()
}

// SetCancelEnabled turns the display's cancel affordance on or off.
func (m *Monitor) SetCancelEnabled(enabled bool) {
	m.mu.Lock()
	m.run.progress.cancelEnabled = enabled
	m.mu.Unlock()
	m.postDisplayed(func() {
		m.display.SetCancelEnabled(enabled)
	})
}

func (m *Monitor) IsCancelEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.progress.cancelEnabled
}

// SetShowProgressValue shows or hides the numeric progress printed with the
// bar. Values are shown by default.
func (m *Monitor) SetShowProgressValue(show bool) {
	m.mu.Lock()
	m.run.progress.hideValue = !show
	m.mu.Unlock()
	m.postDisplayed(func() {
		m.display.SetShowProgressValue(show)
	})
}

func (m *Monitor) ShowsProgressValue() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.run.progress.hideValue
}

// IsInitialized reports whether a client has claimed the monitor for progress
// updates. Only one client should update progress at a time; code handing out
// shared monitors skips the initialized ones.
func (m *Monitor) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.claimed
}

// SetInitialized sets or releases the claim. Reset leaves it alone.
func (m *Monitor) SetInitialized(initialized bool) {
	m.mu.Lock()
	m.run.claimed = initialized
	m.mu.Unlock()
}

// Claim marks the monitor initialized and reports true, unless another client
// already holds it.
func (m *Monitor) Claim() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run.claimed {
		return false
	}
	m.run.claimed = true
	return true
}

// Cancel marks the task cancelled. Listeners are notified once, on the
// transition; repeated calls do nothing. Cancel takes effect whether or not
// the display was ever shown.
func (m *Monitor) Cancel() {
	m.cancel(0, false)
}

// cancel applies a cancellation. With checkGeneration set it only does so if
// the run generation still equals generation; the check and the transition
// share one critical section. It reports whether the state changed.
func (m *Monitor) cancel(generation uint64, checkGeneration bool) bool {
	m.mu.Lock()
	if checkGeneration && m.run.generation != generation {
		m.mu.Unlock()
		return false
	}
	if !m.run.progress.requestCancel() {
		m.mu.Unlock()
		return false
	}
	listeners := m.run.listeners.snapshot()
	generation = m.run.generation
	m.mu.Unlock()

	m.log.V(3).Info("task cancelled", "generation", generation)
	for _, fn := range listeners {
		fn()
	}
	return true
}

// ClearCancel resets the cancelled flag. It belongs to the reuse lifecycle:
// the owner of a new run calls it after Reset.
func (m *Monitor) ClearCancel() {
	m.mu.Lock()
	m.run.progress.clearCancel()
	m.mu.Unlock()
}

func (m *Monitor) IsCancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.progress.cancelled
}

// CheckCancelled returns ErrCancelled when the task has been cancelled. Workers
// call it periodically; it never interrupts anything by itself.
func (m *Monitor) CheckCancelled() error {
	if m.IsCancelled() {
		return ErrCancelled
	}
	return nil
}

// OnCancelled registers fn to be called each time the task transitions to
// cancelled. fn runs on the goroutine that cancelled the task, without the
// monitor's lock held.
func (m *Monitor) OnCancelled(fn func()) (remove func()) {
	m.mu.Lock()
	id := m.run.listeners.add(fn)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.run.listeners.remove(id)
			m.mu.Unlock()
		})
	}
}

// TaskProcessed is called by the task's owner when the work has finished,
// whether it ran to the end or stopped after a cancellation. It dismisses the
// display, or keeps it from ever appearing.
func (m *Monitor) TaskProcessed() {
	m.mu.Lock()
	if m.run.completed {
		m.mu.Unlock()
		return
	}
	m.run.completed = true
	close(m.run.done)
	generation := m.run.generation
	m.mu.Unlock()

	m.log.V(5).Info("task processed", "generation", generation)
	if err := m.dispatcher.Post(m.closeDisplay); err != nil {
		m.log.V(5).Info("unable to dismiss display", "reason", err.Error())
	}
}

func (m *Monitor) IsCompleted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.completed
}

// Done returns a channel closed when the current run completes. After Reset a
// new channel is handed out for the new run.
func (m *Monitor) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.done
}

// Generation returns the current run generation. It starts at zero and grows
// by one on every Reset.
func (m *Monitor) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run.generation
}

// Reset prepares the monitor for another run: the generation is bumped, the
// completed flag cleared and progress rewound. A cancellation is left in
// place; the new run's owner clears it explicitly with ClearCancel.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.run.generation++
	m.run.started = true
	if m.run.completed {
		m.run.done = make(chan struct{})
	}
	m.run.completed = false
	m.run.progress.value = 0
	if m.run.secondary != nil {
		m.run.secondary.progress.value = 0
	}
	generation := m.run.generation
	m.mu.Unlock()

	m.log.V(5).Info("task monitor reset", "generation", generation)
}

// State reports where the current run is in its lifecycle.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.run.disposed:
		return StateDisposed
	case m.run.completed:
		return StateCompleted
	case m.run.progress.cancelled:
		return StateCancelled
	case m.run.started:
		return StateRunning
	default:
		return StateNotStarted
	}
}

// Dispose releases the monitor: a pending deferred show is cancelled, the
// progress refresher stopped and a visible display closed. Dispose may be
// called from any goroutine, in any state, any number of times.
func (m *Monitor) Dispose() {
	m.mu.Lock()
	if m.run.disposed {
		m.mu.Unlock()
		return
	}
	m.run.disposed = true
	showTimer, refreshTimer := m.run.showTimer, m.run.refreshTimer
	m.run.showTimer, m.run.refreshTimer = nil, nil
	displayed := m.run.displayed
	m.run.displayed = false
	m.mu.Unlock()

	showTimer.Stop()
	refreshTimer.Stop()
	m.log.V(5).Info("task monitor disposed", "displayed", displayed)
	if !displayed {
		return
	}
	err := m.dispatcher.Post(func(context.Context) {
		m.display.Close()
	})
	if err != nil {
		// no dispatcher left to own the display
		m.display.Close()
	}
}

// SecondaryMonitor returns the monitor for an inner sub-task. It is created on
// first use and shares this monitor's cancellation and completion.
func (m *Monitor) SecondaryMonitor() *SecondaryMonitor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run.secondary == nil {
		m.run.secondary = &SecondaryMonitor{parent: m}
	}
	return m.run.secondary
}

// postWidgetUpdate re-evaluates the widget mode on the dispatcher.
func (m *Monitor) postWidgetUpdate() {
	err := m.dispatcher.Post(func(context.Context) {
		m.applyWidgetMode()
	})
	if err != nil {
		m.log.V(7).Info("unable to update progress widget", "reason", err.Error())
	}
}

// postDisplayed runs fn on the dispatcher if the display is visible by then.
func (m *Monitor) postDisplayed(fn func()) {
	err := m.dispatcher.Post(func(context.Context) {
		m.mu.Lock()
		displayed := m.run.displayed
		m.mu.Unlock()
		if displayed {
			fn()
		}
	})
	if err != nil {
		m.log.V(7).Info("unable to update display", "reason", err.Error())
	}
}
