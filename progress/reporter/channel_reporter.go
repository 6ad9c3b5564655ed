package reporter

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/konveyor/task-monitor/progress"
)

// ChannelReporter exposes display events on a Go channel.
//
// It is the bridge to a UI living in the same process, such as the terminal
// UI, and the easiest way to assert on a display in tests.
//
// Progress events never block: when the consumer falls behind they are
// dropped and counted (see DroppedEvents), since the next one replaces them.
// Every other kind waits for the consumer, so a UI always learns that a
// display opened, closed or finished.
//
// The channel is closed by Close, or when the context passed to
// NewChannelReporter ends, so consumers can simply range over Events().
//
// Example:
//
//	r := reporter.NewChannelReporter(ctx)
//	go func() {
//	    for event := range r.Events() {
//	        if event.Kind == progress.KindProgress {
//	            fmt.Printf("%.1f%%\n", event.Percent)
//	        }
//	    }
//	}()
//	...
//	prog.Close()
//	r.Close()
type ChannelReporter struct {
	events        chan progress.Event
	done          chan struct{}
	closeOnce     sync.Once
	mu            sync.RWMutex
	closed        bool
	droppedEvents atomic.Uint64
	log           logr.Logger
}

// ChannelReporterOption configures a ChannelReporter.
type ChannelReporterOption func(*ChannelReporter)

// WithLogger logs every dropped event at V(1).
func WithLogger(log logr.Logger) ChannelReporterOption {
	return func(r *ChannelReporter) {
		r.log = log
	}
}

// WithBufferSize sets the channel capacity. The default is 100.
func WithBufferSize(size int) ChannelReporterOption {
	return func(r *ChannelReporter) {
		if size > 0 {
			r.events = make(chan progress.Event, size)
		}
	}
}

// NewChannelReporter creates a channel reporter whose channel closes when ctx
// ends or Close is called, whichever comes first.
func NewChannelReporter(ctx context.Context, opts ...ChannelReporterOption) *ChannelReporter {
	r := &ChannelReporter{
		events: make(chan progress.Event, 100),
		done:   make(chan struct{}),
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}

	go func() {
		select {
		case <-ctx.Done():
			r.Close()
		case <-r.done:
		}
	}()

	return r
}

// Report sends the event. Events reported after the channel closed are
// ignored, and a send waiting for the consumer gives up when it closes.
func (c *ChannelReporter) Report(event progress.Event) {
	normalize(&event)

	// held for the whole send so the channel cannot close underneath it
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	if event.Kind != progress.KindProgress {
		select {
		case c.events <- event:
		case <-c.done:
		}
		return
	}

	select {
	case c.events <- event:
	default:
		dropped := c.droppedEvents.Add(1)
		c.log.V(1).Info("display event dropped due to slow consumer",
			"kind", string(event.Kind),
			"monitor", event.Monitor,
			"total_dropped", dropped,
		)
	}
}

// Close closes the channel once everything already sent has been queued.
// Calling it again does nothing.
func (c *ChannelReporter) Close() {
	c.closeOnce.Do(func() {
		// wakes any send waiting for the consumer so the lock can be taken
		close(c.done)
		c.mu.Lock()
		c.closed = true
		close(c.events)
		c.mu.Unlock()
	})
}

// Events returns the channel to range over.
func (c *ChannelReporter) Events() <-chan progress.Event {
	return c.events
}

// DroppedEvents returns how many progress events were dropped because the
// channel was full.
func (c *ChannelReporter) DroppedEvents() uint64 {
	return c.droppedEvents.Load()
}
