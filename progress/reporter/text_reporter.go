package reporter

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/konveyor/task-monitor/progress"
)

// TextReporter writes display events as timestamped lines.
//
// It suits log files and terminals that are not a TTY. Each kind of event has
// its own line format, prefixed with the task title:
//
//	[17:06:14] Indexing: started
//	[17:06:14] Indexing: scanning src/
//	[17:06:15] Indexing: 1,200/10,000 (12.0%)
//	[17:06:15] Indexing:   parser.go
//	[17:06:19] Indexing: closed
//	[17:06:19] Indexing: completed
//
// A line has no bar to draw, so progress events whose value is hidden print
// nothing.
//
// TextReporter is safe for concurrent use.
type TextReporter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewTextReporter creates a text reporter writing to w, typically os.Stderr.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{
		writer: w,
	}
}

// Report writes one line for the event, or nothing when the event carries
// nothing worth printing (an empty status, for instance).
func (t *TextReporter) Report(event progress.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	normalize(&event)

	var line string
	switch event.Kind {
	case progress.KindOpened:
		line = "started"
		if event.Total > 0 && !event.HideValue {
			line += fmt.Sprintf(" %s/%s (%.1f%%)",
				humanize.Comma(event.Current), humanize.Comma(event.Total), event.Percent)
		}
	case progress.KindStatus:
		line = event.Message
	case progress.KindSubStatus:
		if event.Message != "" {
			line = "  " + event.Message
		}
	case progress.KindMode:
		if event.Indeterminate {
			line = "working..."
		} else {
			line = "measuring progress"
		}
	case progress.KindProgress:
		if event.Total > 0 && !event.HideValue {
			line = fmt.Sprintf("%s/%s (%.1f%%)",
				humanize.Comma(event.Current), humanize.Comma(event.Total), event.Percent)
		}
	case progress.KindCancelEnabled:
		if event.CancelEnabled {
			line = "cancel enabled"
		} else {
			line = "cancel disabled"
		}
	case progress.KindShowValue:
	case progress.KindClosed:
		line = "closed"
	case progress.KindFinished:
		line = event.Message
		if line == "" {
			line = "finished"
		}
	default:
		line = event.Message
	}
	if line == "" {
		return
	}

	if event.Title != "" {
		fmt.Fprintf(t.writer, "[%s] %s: %s\n", event.Timestamp.Format(timeFormat), event.Title, line)
	} else {
		fmt.Fprintf(t.writer, "[%s] %s\n", event.Timestamp.Format(timeFormat), line)
	}
}
