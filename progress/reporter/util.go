package reporter

import (
	"time"

	"github.com/konveyor/task-monitor/progress"
)

const timeFormat = "15:04:05"

// normalize fills in derived fields:
//   - Timestamp is set to now if zero
//   - Percent is calculated from Current/Total if zero and Total > 0
func normalize(e *progress.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Percent == 0.0 && e.Total > 0 {
		e.Percent = float64(e.Current) / float64(e.Total) * 100.0
		if e.Percent > 100 {
			e.Percent = 100
		}
	}
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
