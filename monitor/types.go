package monitor

import (
	"context"
	"errors"
)

// ErrCancelled is returned by CheckCancelled once the task has been cancelled.
//
// It is not a failure: a worker that receives it should unwind and return,
// usually by propagating the error up its own call stack. Test for it with
// errors.Is.
var ErrCancelled = errors.New("task cancelled")

// Task describes the operation a Monitor is attached to.
type Task struct {
	// Title is shown by the display and used in the cancel confirmation.
	Title string

	// CanCancel enables the display's cancel affordance.
	CanCancel bool

	// Modal selects blocking Show: the caller does not get control back until
	// the task completes or the display is visible.
	Modal bool

	// HasProgress selects a determinate progress widget. Tasks without
	// progress get the indeterminate activity widget until they call
	// Initialize.
	HasProgress bool
}

// TaskMonitor is the view of a monitor handed to the code doing the work.
//
// Implementations are safe for concurrent use.
type TaskMonitor interface {
	// Initialize resets progress to zero and sets the maximum. It is ignored
	// while the monitor is indeterminate.
	Initialize(max int64)
	SetProgress(value int64)
	IncrementProgress(amount int64)
	Progress() int64
	SetMaximum(max int64)
	Maximum() int64

	// SetIndeterminate switches between a determinate progress widget and an
	// activity widget. Once set, only SetIndeterminate(false) clears it.
	SetIndeterminate(indeterminate bool)
	IsIndeterminate() bool

	SetMessage(message string)

	// SetShowProgressValue controls whether the display prints the numeric
	// progress next to the bar.
	SetShowProgressValue(show bool)

	// CheckCancelled returns ErrCancelled if the task has been cancelled.
	CheckCancelled() error
	Cancel()
	ClearCancel()
	IsCancelled() bool

	// OnCancelled registers fn to run when the task becomes cancelled and
	// returns a function that removes the registration.
	OnCancelled(fn func()) (remove func())
}

// WidgetMode selects how a display renders progress.
type WidgetMode int

const (
	// WidgetDeterminate renders value/maximum as a progress bar.
	WidgetDeterminate WidgetMode = iota
	// WidgetIndeterminate renders an activity animation.
	WidgetIndeterminate
)

func (m WidgetMode) String() string {
	switch m {
	case WidgetDeterminate:
		return "determinate"
	case WidgetIndeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Dialog is what a display needs to know to present a monitor.
type Dialog struct {
	Title     string
	Modal     bool
	CanCancel bool
}

// Display is the presentation surface a Monitor drives.
//
// Every method is called from the dispatcher goroutine only, so
// implementations need no locking of their own for these calls. A display
// reports a user's cancel request by calling Monitor.CancelPressed.
type Display interface {
	// Open makes the display visible, modal or not.
	Open(dialog Dialog)
	// Close hides the display and releases its resources.
	Close()
	SetStatusText(text string)
	SetSubStatusText(text string)
	SetProgressWidget(mode WidgetMode)
	SetProgress(value, maximum int64)
	SetCancelEnabled(enabled bool)
	// SetShowProgressValue shows or hides the percentage and counts printed
	// with the progress bar; the bar itself stays.
	SetShowProgressValue(show bool)
	// Repack lets the display recompute its layout after content changes.
	Repack()
}

// Prompter asks the user a yes/no question. It is called synchronously from
// the dispatcher and may block it until answered.
type Prompter interface {
	AskYesNo(ctx context.Context, title, question string) bool
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, title, question string) bool

// AskYesNo calls f.
func (f PrompterFunc) AskYesNo(ctx context.Context, title, question string) bool {
	return f(ctx, title, question)
}

// AutoConfirm answers yes to every question. It is the default prompter, so
// a cancel request from a display without a prompt surface takes effect.
var AutoConfirm Prompter = PrompterFunc(func(context.Context, string, string) bool {
	return true
})

// State is the lifecycle state of a monitor's current run.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateCancelled
	StateCompleted
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

type nopDisplay struct{}

func (nopDisplay) Open(Dialog) {}
func (nopDisplay) Close() {}
func (nopDisplay) SetStatusText(string) {}
func (nopDisplay) SetSubStatusText(string) {}
func (nopDisplay) SetProgressWidget(WidgetMode) {}
func (nopDisplay) SetProgress(int64, int64) {}
func (nopDisplay) SetCancelEnabled(bool) {}
func (nopDisplay) SetShowProgressValue(bool) {}
func (nopDisplay) Repack() {}
