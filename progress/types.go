package progress

import (
	"time"
)

// ProgressInterface defines the contract for managing collector subscriptions.
//
// This interface is implemented by the Progress struct and allows collectors
// to be added or removed while monitors are running.
type ProgressInterface interface {
	// Subscribe starts receiving events from a collector.
	Subscribe(collector Collector)

	// Unsubscribe stops receiving events from a collector.
	Unsubscribe(collector Collector)
}

// Reporter is the interface for outputting display events.
//
// Reporters receive events from Progress and render them in some form:
//   - TextReporter: timestamped, human readable lines
//   - JSONReporter: newline-delimited JSON for machines
//   - ProgressBarReporter: an in-place terminal bar
//   - ChannelReporter: a Go channel for programmatic use
//   - NoopReporter: discards everything
//
// Implementations must be safe for concurrent use. Report is called from a
// Progress worker goroutine and should not block for long; a slow reporter
// only delays itself since every reporter has its own buffered channel.
type Reporter interface {
	// Report outputs a display event.
	Report(event Event)
}

// Collector gathers events and exposes them on a channel that Progress
// subscribes to.
//
// A Surface reports into a Collector; Progress drains the collector and fans
// events out to reporters. This keeps the dispatcher, which drives the
// Surface, from ever waiting on terminal or file output.
//
// Implementations:
//   - collector.New: pass-through
//   - collector.ThrottledCollector: limits the rate of progress events
type Collector interface {
	// Reporter embeds the ability to receive events.
	Reporter

	// ID returns a unique identifier used for subscription management.
	ID() int

	// CollectChannel returns the channel from which Progress reads events.
	CollectChannel() chan Event
}

// Event is one change to a task monitor's display.
//
// A Surface emits an event for every call the monitor makes on it, so a
// stream of events replays exactly what a graphical display would have shown.
// Only the fields relevant to the Kind are populated, plus Monitor and Title
// which identify the display on every event.
type Event struct {
	// Timestamp is when the event occurred. Reporters fill it in when zero.
	Timestamp time.Time `json:"timestamp"`

	// Kind is what changed.
	Kind Kind `json:"kind"`

	// Monitor is the ID of the monitor driving the display.
	Monitor string `json:"monitor,omitempty"`

	// Title is the task title.
	Title string `json:"title,omitempty"`

	// Message is the status text for KindStatus and KindSubStatus, and the
	// outcome for KindFinished.
	Message string `json:"message,omitempty"`

	// Current and Total are the progress value and maximum for KindProgress.
	Current int64 `json:"current,omitempty"`
	Total   int64 `json:"total,omitempty"`

	// Percent is the completion percentage (0-100), calculated from Current
	// and Total when not set.
	Percent float64 `json:"percent,omitempty"`

	// Indeterminate is set when the display shows an activity indicator
	// rather than a progress bar.
	Indeterminate bool `json:"indeterminate,omitempty"`

	// Modal is set on KindOpened for a blocking display.
	Modal bool `json:"modal,omitempty"`

	// CancelEnabled reports whether the cancel affordance is active.
	CancelEnabled bool `json:"cancelEnabled,omitempty"`

	// HideValue is set when only the bar should be drawn, without the
	// percentage and counts. It accompanies KindOpened, KindProgress and
	// KindShowValue.
	HideValue bool `json:"hideValue,omitempty"`
}

// Kind identifies what an Event describes.
//
// A display's events occur in this order:
//  1. KindOpened, once the monitor decides the display is needed
//  2. KindStatus, KindSubStatus, KindMode, KindProgress, KindCancelEnabled,
//     KindShowValue, any number of times
//  3. KindClosed, when the task completes or the monitor is disposed
//
// KindFinished is reported by the task's owner, not the display, and carries
// the outcome whether or not the display was ever opened.
type Kind string

const (
	// KindOpened indicates the display became visible.
	KindOpened Kind = "opened"

	// KindStatus carries new primary status text.
	KindStatus Kind = "status"

	// KindSubStatus carries new secondary status text.
	KindSubStatus Kind = "sub_status"

	// KindMode indicates a switch between progress bar and activity indicator.
	KindMode Kind = "mode"

	// KindProgress carries a progress value and maximum.
	KindProgress Kind = "progress"

	// KindCancelEnabled indicates the cancel affordance was toggled.
	KindCancelEnabled Kind = "cancel_enabled"

	// KindShowValue indicates the numeric progress was shown or hidden.
	KindShowValue Kind = "show_value"

	// KindClosed indicates the display was dismissed.
	KindClosed Kind = "closed"

	// KindFinished carries the task's outcome.
	KindFinished Kind = "finished"
)
