package progress

import (
	"context"
	"sync"
)

// Progress moves display events from collectors to reporters.
//
// Progress is the hub between the task monitors' surfaces and whatever renders
// them. Surfaces report into collectors, Progress multiplexes every collector
// into one channel and then fans each event out to all reporters.
//
// Architecture:
//   - Collectors expose channels that Progress subscribes to
//   - Progress multiplexes events from all collectors into a central channel
//   - Events are fanned out to one buffered channel per reporter
//   - Each reporter runs in its own goroutine
//
// Lifecycle:
//  1. Create with New() and options (WithContext, WithReporters, WithCollectors)
//  2. Events flow: Collector -> Progress.collectorChan -> reporter channels -> Reporters
//  3. Close delivers what the collectors already hold and stops every goroutine;
//     cancelling the context stops them without delivering anything further
//
// Example:
//
//	col := collector.New()
//	prog, err := progress.New(
//	    progress.WithContext(ctx),
//	    progress.WithReporters(reporter.NewTextReporter(os.Stderr)),
//	    progress.WithCollectors(col),
//	)
//	defer prog.Close()
//
//	m, err := monitor.New(d, task, monitor.WithDisplay(progress.NewSurface(col)))
//
// Thread Safety:
// Progress is safe for concurrent use.
type Progress struct {
	ctx                context.Context
	reporters          []Reporter
	reporterChannels   []chan Event
	collectors         []Collector
	collectorChan      chan Event
	collectorCancelMap map[int]context.CancelFunc
	subscribeMutex     sync.Mutex
	closed             bool
	subscribers        sync.WaitGroup
	workers            sync.WaitGroup
	closeOnce          sync.Once
}

// ProgressOption configures a Progress instance during creation.
type ProgressOption func(p *Progress)

// WithContext sets the context controlling every background goroutine. When it
// is cancelled, reporters and subscriptions stop immediately.
func WithContext(ctx context.Context) ProgressOption {
	return func(p *Progress) {
		p.ctx = ctx
	}
}

// WithReporters adds reporters. Every reporter receives every event.
func WithReporters(reporters ...Reporter) ProgressOption {
	return func(p *Progress) {
		p.reporters = append(p.reporters, reporters...)
	}
}

// WithCollectors adds collectors that Progress subscribes to on creation.
func WithCollectors(collectors ...Collector) ProgressOption {
	return func(p *Progress) {
		p.collectors = append(p.collectors, collectors...)
	}
}

// New creates a Progress hub and starts its goroutines.
//
// Without reporters a NoopReporter is installed so events are still drained.
// Without a context the hub runs until Close.
func New(opts ...ProgressOption) (*Progress, error) {
	pg := &Progress{
		collectorChan:      make(chan Event, 100),
		collectorCancelMap: map[int]context.CancelFunc{},
	}
	for _, opt := range opts {
		opt(pg)
	}
	if pg.ctx == nil {
		pg.ctx = context.Background()
	}

	if len(pg.reporters) == 0 {
		pg.reporters = append(pg.reporters, &NoopReporter{})
	}

	for _, reporter := range pg.reporters {
		reporterChannel := make(chan Event, 100)
		pg.reporterChannels = append(pg.reporterChannels, reporterChannel)
		pg.workers.Add(1)
		go pg.reporterWorker(reporter, reporterChannel)
	}

	pg.workers.Add(1)
	go pg.fanOut()

	for _, collector := range pg.collectors {
		pg.Subscribe(collector)
	}

	return pg, nil
}

// Subscribe starts receiving events from the collector. Subscribing after
// Close does nothing.
func (p *Progress) Subscribe(collector Collector) {
	subscribeContext, subscribeCancel := context.WithCancel(p.ctx)
	p.subscribeMutex.Lock()
	if p.closed {
		p.subscribeMutex.Unlock()
		subscribeCancel()
		return
	}
	p.collectorCancelMap[collector.ID()] = subscribeCancel
	p.subscribers.Add(1)
	p.subscribeMutex.Unlock()

	go func() {
		defer p.subscribers.Done()
		for {
			select {
			case event := <-collector.CollectChannel():
				p.forward(event)
			case <-subscribeContext.Done():
				if p.ctx.Err() == nil {
					p.drain(collector)
				}
				return
			}
		}
	}()
}

// Unsubscribe stops receiving events from the collector. Events the collector
// already buffered are still delivered.
func (p *Progress) Unsubscribe(collector Collector) {
	p.subscribeMutex.Lock()
	subscribeCancel, ok := p.collectorCancelMap[collector.ID()]
	delete(p.collectorCancelMap, collector.ID())
	p.subscribeMutex.Unlock()
	if ok {
		subscribeCancel()
	}
}

// Close delivers every event already sitting in a subscribed collector to the
// reporters, then stops all goroutines. It blocks until the reporters have
// seen those events. Close is idempotent.
func (p *Progress) Close() {
	p.closeOnce.Do(func() {
		p.subscribeMutex.Lock()
		p.closed = true
		cancels := make([]context.CancelFunc, 0, len(p.collectorCancelMap))
		for id, cancel := range p.collectorCancelMap {
			cancels = append(cancels, cancel)
			delete(p.collectorCancelMap, id)
		}
		p.subscribeMutex.Unlock()

		for _, cancel := range cancels {
			cancel()
		}
		p.subscribers.Wait()
		close(p.collectorChan)
		p.workers.Wait()
	})
}

func (p *Progress) forward(event Event) {
	select {
	case p.collectorChan <- event:
	case <-p.ctx.Done():
	}
}

// drain forwards whatever the collector holds without waiting for more.
func (p *Progress) drain(collector Collector) {
	for {
		select {
		case event := <-collector.CollectChannel():
			p.forward(event)
		default:
			return
		}
	}
}

// fanOut copies every collected event to each reporter channel. The reporter
// channels are closed once the collector channel is.
func (p *Progress) fanOut() {
	defer p.workers.Done()
	defer func() {
		for _, ch := range p.reporterChannels {
			close(ch)
		}
	}()
	for {
		select {
		case event, ok := <-p.collectorChan:
			if !ok {
				return
			}
			for _, ch := range p.reporterChannels {
				select {
				case ch <- event:
				case <-p.ctx.Done():
					return
				}
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// reporterWorker feeds one reporter from its own buffered channel so a slow
// reporter cannot hold up the others.
func (p *Progress) reporterWorker(reporter Reporter, events chan Event) {
	defer p.workers.Done()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			reporter.Report(event)
		case <-p.ctx.Done():
			return
		}
	}
}
