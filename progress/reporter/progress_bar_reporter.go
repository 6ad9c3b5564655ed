package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/konveyor/task-monitor/progress"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// ProgressBarReporter draws a display as a single terminal line updated in
// place.
//
// While the task reports progress the line is a bar:
//
//	Indexing  42% |██████████░░░░░░░░░░░░░░░| 4,200/10,000  parser.go
//
// With the value hidden only the bar is drawn:
//
//	Indexing |██████████░░░░░░░░░░░░░░░|  parser.go
//
// and while it is indeterminate a spinner that advances with every event:
//
//	Indexing / resolving dependencies
//
// The line is redrawn with carriage returns, so the reporter only makes sense
// on a TTY. Use TextReporter or JSONReporter for pipes and files.
//
// ProgressBarReporter is safe for concurrent use.
type ProgressBarReporter struct {
	writer      io.Writer
	mu          sync.Mutex
	barWidth    int
	lastLineLen int

	title         string
	status        string
	indeterminate bool
	hideValue     bool
	current       int64
	total         int64
	percent       float64
	frame         int
}

// NewProgressBarReporter creates a bar reporter writing to w, typically
// os.Stderr. The bar is 25 cells wide.
func NewProgressBarReporter(w io.Writer) *ProgressBarReporter {
	return &ProgressBarReporter{
		writer:        w,
		barWidth:      25,
		indeterminate: true,
	}
}

// Report updates the line for the event. Opening starts a line, closing ends
// it with a newline, and everything in between redraws it.
func (p *ProgressBarReporter) Report(event progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	normalize(&event)
	if event.Title != "" {
		p.title = event.Title
	}

	switch event.Kind {
	case progress.KindOpened:
		p.clearLine()
		p.indeterminate = event.Indeterminate
		p.hideValue = event.HideValue
		p.current, p.total, p.percent = event.Current, event.Total, event.Percent
		p.status = ""
		p.redraw()

	case progress.KindStatus:
		p.status = event.Message
		p.redraw()

	case progress.KindMode:
		p.indeterminate = event.Indeterminate
		p.redraw()

	case progress.KindShowValue:
		p.hideValue = event.HideValue
		p.redraw()

	case progress.KindProgress:
		p.indeterminate = false
		p.hideValue = event.HideValue
		p.current, p.total, p.percent = event.Current, event.Total, event.Percent
		p.redraw()

	case progress.KindClosed:
		if p.lastLineLen > 0 {
			fmt.Fprint(p.writer, "\n")
			p.lastLineLen = 0
		}

	case progress.KindFinished:
		p.clearLine()
		if event.Message != "" {
			fmt.Fprintf(p.writer, "%s: %s\n", p.title, event.Message)
		}

	default:
		// sub-status and cancel toggles have no place on the line
	}
}

// redraw replaces the current line with the rendered state.
func (p *ProgressBarReporter) redraw() {
	line := p.buildLine()
	p.clearLine()
	fmt.Fprint(p.writer, line)
	p.lastLineLen = utf8.RuneCountInString(line)
}

func (p *ProgressBarReporter) buildLine() string {
	var line string
	if p.indeterminate {
		frame := spinnerFrames[p.frame%len(spinnerFrames)]
		p.frame++
		line = fmt.Sprintf("%s %s", p.title, frame)
	} else if p.hideValue {
		line = fmt.Sprintf("%s %s", p.title, p.buildBar())
	} else {
		line = fmt.Sprintf("%s %s %s", p.title, fmt.Sprintf("%3d%%", int(p.percent)), p.buildBar())
		if p.total > 0 {
			line += fmt.Sprintf(" %s/%s", humanize.Comma(p.current), humanize.Comma(p.total))
		}
	}
	if p.status != "" {
		line += "  " + truncate(p.status, 50)
	}
	return line
}

func (p *ProgressBarReporter) buildBar() string {
	filledWidth := int(float64(p.barWidth) * p.percent / 100.0)
	if filledWidth > p.barWidth {
		filledWidth = p.barWidth
	}
	if filledWidth < 0 {
		filledWidth = 0
	}
	return fmt.Sprintf("|%s%s|",
		strings.Repeat("█", filledWidth),
		strings.Repeat("░", p.barWidth-filledWidth))
}

// clearLine blanks the current line if one is drawn.
func (p *ProgressBarReporter) clearLine() {
	if p.lastLineLen > 0 {
		fmt.Fprint(p.writer, "\r")
		fmt.Fprint(p.writer, strings.Repeat(" ", p.lastLineLen))
		fmt.Fprint(p.writer, "\r")
		p.lastLineLen = 0
	}
}
