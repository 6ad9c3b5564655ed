package collector

import (
	"sync/atomic"
	"time"

	"github.com/konveyor/task-monitor/progress"
)

const (
	// DefaultBufferSize is how many events a collector holds before Progress
	// drains them.
	DefaultBufferSize = 100

	// DefaultSendTimeout bounds how long a lifecycle event waits for room in
	// a full buffer.
	DefaultSendTimeout = time.Second
)

// Option configures a collector.
type Option func(s *stream)

// WithBufferSize sets the channel capacity. Non-positive sizes are ignored.
func WithBufferSize(size int) Option {
	return func(s *stream) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithSendTimeout sets how long a lifecycle event waits for room before it is
// dropped. Non-positive timeouts are ignored.
func WithSendTimeout(timeout time.Duration) Option {
	return func(s *stream) {
		if timeout > 0 {
			s.sendTimeout = timeout
		}
	}
}

// stream is the buffered channel behind every collector.
//
// A progress event is superseded by the next one, so it is dropped at once
// when the buffer is full. Any other kind changes what the display shows
// (opened, closed, a new status) and waits up to sendTimeout before it is
// given up. The reporting goroutine is usually the dispatcher, which must
// never wait on a reporter indefinitely.
type stream struct {
	size        int
	sendTimeout time.Duration
	ch          chan progress.Event
	dropped     atomic.Uint64
}

func newStream(opts []Option) *stream {
	s := &stream{
		size:        DefaultBufferSize,
		sendTimeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ch = make(chan progress.Event, s.size)
	return s
}

func (s *stream) send(event progress.Event) {
	select {
	case s.ch <- event:
		return
	default:
	}
	if event.Kind == progress.KindProgress {
		s.dropped.Add(1)
		return
	}

	timer := time.NewTimer(s.sendTimeout)
	defer timer.Stop()
	select {
	case s.ch <- event:
	case <-timer.C:
		s.dropped.Add(1)
	}
}
