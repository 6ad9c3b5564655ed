package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/konveyor/task-monitor/progress"
)

// JSONReporter writes display events as newline-delimited JSON (NDJSON).
//
// Each line is a complete JSON object, so the stream can be consumed by log
// aggregation or another process while the task runs:
//
//	{"timestamp":"2024-10-29T17:06:14Z","kind":"opened","monitor":"5f0c...","title":"Indexing","indeterminate":true,"cancelEnabled":true}
//	{"timestamp":"2024-10-29T17:06:14Z","kind":"status","monitor":"5f0c...","title":"Indexing","message":"scanning src/"}
//	{"timestamp":"2024-10-29T17:06:15Z","kind":"progress","monitor":"5f0c...","title":"Indexing","current":1200,"total":10000,"percent":12}
//	{"timestamp":"2024-10-29T17:06:19Z","kind":"closed","monitor":"5f0c...","title":"Indexing"}
//
// JSONReporter is safe for concurrent use.
type JSONReporter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONReporter creates a JSON reporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer: w,
	}
}

// Report writes the event as one JSON line. Marshalling errors skip the event.
func (j *JSONReporter) Report(event progress.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	normalize(&event)

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintln(j.writer, string(data))
}
