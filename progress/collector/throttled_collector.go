package collector

import (
	"math/rand"
	"sync"
	"time"

	"github.com/konveyor/task-monitor/progress"
)

var _ progress.Collector = (*ThrottledCollector)(nil)

// DefaultThrottleInterval is the minimum spacing of forwarded progress events.
const DefaultThrottleInterval = 500 * time.Millisecond

// ThrottledCollector limits how often progress events are forwarded.
//
// Only KindProgress events are throttled, per monitor:
//   - the first progress event of a monitor is always forwarded
//   - an event reaching its total is always forwarded
//   - others are forwarded once the interval has elapsed since the last one
//
// Every other kind (opened, status, closed, ...) is always forwarded, so a
// reporter never misses a state change.
//
// Example:
//
//	throttled := collector.NewThrottledCollector(200 * time.Millisecond)
//	prog, _ := progress.New(
//	    progress.WithCollectors(throttled),
//	    progress.WithReporters(reporter.NewProgressBarReporter(os.Stderr)),
//	)
type ThrottledCollector struct {
	throttleInterval time.Duration
	reportMutex      sync.Mutex
	lastReportTime   map[string]time.Time
	now              func() time.Time

	stream *stream
	id     int
}

// NewThrottledCollector creates a throttled collector. A non-positive interval
// uses DefaultThrottleInterval. The options size the buffer the same way they
// do for New.
func NewThrottledCollector(interval time.Duration, opts ...Option) *ThrottledCollector {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	return &ThrottledCollector{
		throttleInterval: interval,
		lastReportTime:   map[string]time.Time{},
		now:              time.Now,
		id:               rand.Int(),
		stream:           newStream(opts),
	}
}

func (t *ThrottledCollector) ID() int {
	return t.id
}

// Report forwards the event if the throttling rules allow it.
func (t *ThrottledCollector) Report(event progress.Event) {
	if event.Kind == progress.KindProgress && !t.admit(event) {
		return
	}
	t.stream.send(event)
}

func (t *ThrottledCollector) admit(event progress.Event) bool {
	t.reportMutex.Lock()
	defer t.reportMutex.Unlock()

	now := t.now()
	last, seen := t.lastReportTime[event.Monitor]
	isLastEvent := event.Total > 0 && event.Current >= event.Total
	if seen && !isLastEvent && now.Sub(last) < t.throttleInterval {
		return false
	}
	t.lastReportTime[event.Monitor] = now
	return true
}

func (t *ThrottledCollector) CollectChannel() chan progress.Event {
	return t.stream.ch
}

// Dropped returns how many admitted events did not fit in the buffer.
// Throttled events are not counted.
func (t *ThrottledCollector) Dropped() uint64 {
	return t.stream.dropped.Load()
}
