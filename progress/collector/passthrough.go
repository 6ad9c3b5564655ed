package collector

import (
	"math/rand"

	"github.com/konveyor/task-monitor/progress"
)

var _ progress.Collector = (*PassThrough)(nil)

// PassThrough forwards every event it can buffer.
//
// Use it when the source already limits its own rate, for example a Surface
// whose monitor refreshes progress on a fixed interval.
type PassThrough struct {
	id     int
	stream *stream
}

// New creates a pass-through collector. See WithBufferSize and
// WithSendTimeout for what happens when Progress falls behind.
func New(opts ...Option) *PassThrough {
	return &PassThrough{
		id:     rand.Int(),
		stream: newStream(opts),
	}
}

func (c *PassThrough) ID() int {
	return c.id
}

func (c *PassThrough) CollectChannel() chan progress.Event {
	return c.stream.ch
}

func (c *PassThrough) Report(event progress.Event) {
	c.stream.send(event)
}

// Dropped returns how many events did not fit in the buffer.
func (c *PassThrough) Dropped() uint64 {
	return c.stream.dropped.Load()
}
