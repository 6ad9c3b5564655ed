package progress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/konveyor/task-monitor/monitor"
)

// fakeCollector hands every event to the hub, waiting for room instead of
// dropping, so tests can count on delivery.
type fakeCollector struct {
	id int
	ch chan Event
}

func newFakeCollector(id int) *fakeCollector {
	return &fakeCollector{
		id: id,
		ch: make(chan Event, 16),
	}
}

func (f *fakeCollector) ID() int {
	return f.id
}

func (f *fakeCollector) CollectChannel() chan Event {
	return f.ch
}

func (f *fakeCollector) Report(event Event) {
	f.ch <- event
}

// mockReporter records what it is given.
type mockReporter struct {
	events []Event
	mu     sync.Mutex
}

func (m *mockReporter) Report(event Event) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
}

func (m *mockReporter) GetEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event{}, m.events...)
}

func (m *mockReporter) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// kindsFor returns the kinds of one monitor's events, in delivery order.
func kindsFor(events []Event, monitorID string) []Kind {
	out := []Kind{}
	for _, e := range events {
		if e.Monitor == monitorID {
			out = append(out, e.Kind)
		}
	}
	return out
}

func waitForCount(t *testing.T, r *mockReporter, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.EventCount() < want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d events, got %d", want, r.EventCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// showDisplay drives a surface through a whole display: open, status,
// steps progress updates and close.
func showDisplay(s *Surface, title string, steps int64) {
	s.SetProgressWidget(monitor.WidgetDeterminate)
	s.Open(monitor.Dialog{Title: title, CanCancel: true})
	s.SetStatusText("working on " + title)
	for i := int64(1); i <= steps; i++ {
		s.SetProgress(i, steps)
	}
	s.Close()
}

func displayKinds(steps int) []Kind {
	want := []Kind{KindOpened, KindStatus}
	for i := 0; i < steps; i++ {
		want = append(want, KindProgress)
	}
	return append(want, KindClosed)
}

func TestNew_DefaultNoopReporter(t *testing.T) {
	prog, err := New()
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}
	defer prog.Close()

	if len(prog.reporters) != 1 {
		t.Fatalf("Expected 1 default reporter, got %d", len(prog.reporters))
	}
	if _, ok := prog.reporters[0].(*NoopReporter); !ok {
		t.Errorf("Expected NoopReporter, got %T", prog.reporters[0])
	}
}

func TestProgress_DisplayOrderPerMonitor(t *testing.T) {
	collector := newFakeCollector(1)
	reporter := &mockReporter{}
	prog, err := New(WithCollectors(collector), WithReporters(reporter))
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	first := NewSurface(collector, WithMonitorID("first"))
	second := NewSurface(collector, WithMonitorID("second"))
	showDisplay(first, "Indexing", 3)
	showDisplay(second, "Resolving", 2)
	prog.Close()

	events := reporter.GetEvents()
	if got := kindsFor(events, "first"); !equalKinds(got, displayKinds(3)) {
		t.Errorf("Unexpected events for first monitor: %v", got)
	}
	if got := kindsFor(events, "second"); !equalKinds(got, displayKinds(2)) {
		t.Errorf("Unexpected events for second monitor: %v", got)
	}
	for _, e := range events {
		if e.Monitor == "second" && e.Title != "Resolving" {
			t.Errorf("Expected every event of the second monitor to carry its title, got %+v", e)
		}
	}
}

func TestProgress_EveryReporterSeesTheSameStream(t *testing.T) {
	collector := newFakeCollector(1)
	text := &mockReporter{}
	json := &mockReporter{}
	prog, err := New(WithCollectors(collector), WithReporters(text, json))
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	showDisplay(NewSurface(collector, WithMonitorID("m")), "Build", 4)
	prog.Close()

	a, b := text.GetEvents(), json.GetEvents()
	if len(a) != len(displayKinds(4)) || len(a) != len(b) {
		t.Fatalf("Expected both reporters to get %d events, got %d and %d", len(displayKinds(4)), len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Event %d differs between reporters: %+v != %+v", i, a[i], b[i])
		}
	}
}

func TestProgress_CloseDeliversFinished(t *testing.T) {
	collector := newFakeCollector(1)
	reporter := &mockReporter{}
	prog, err := New(WithCollectors(collector), WithReporters(reporter))
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	showDisplay(NewSurface(collector, WithMonitorID("m")), "Scan", 10)
	collector.Report(Event{Kind: KindFinished, Monitor: "m", Title: "Scan", Message: "completed"})
	prog.Close()
	prog.Close()

	events := reporter.GetEvents()
	if len(events) != len(displayKinds(10))+1 {
		t.Fatalf("Expected every buffered event after Close, got %v", kindsFor(events, "m"))
	}
	last := events[len(events)-1]
	if last.Kind != KindFinished || last.Message != "completed" {
		t.Errorf("Expected finished event last, got %+v", last)
	}

	// subscribing after close is ignored
	prog.Subscribe(newFakeCollector(2))
}

func TestProgress_SubscribeLater(t *testing.T) {
	reporter := &mockReporter{}
	prog, err := New(WithReporters(reporter))
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}
	defer prog.Close()

	collector := newFakeCollector(7)
	prog.Subscribe(collector)
	NewSurface(collector, WithMonitorID("late")).Open(monitor.Dialog{Title: "Late"})

	waitForCount(t, reporter, 1)
	if got := kindsFor(reporter.GetEvents(), "late"); !equalKinds(got, []Kind{KindOpened}) {
		t.Errorf("Unexpected events %v", got)
	}
}

func TestProgress_UnsubscribeKeepsOtherMonitors(t *testing.T) {
	leaving := newFakeCollector(1)
	staying := newFakeCollector(2)
	reporter := &mockReporter{}
	prog, err := New(WithCollectors(leaving, staying), WithReporters(reporter))
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	leavingSurface := NewSurface(leaving, WithMonitorID("leaving"))
	leavingSurface.Open(monitor.Dialog{Title: "Leaving"})
	prog.Unsubscribe(leaving)
	prog.Unsubscribe(leaving)

	stayingSurface := NewSurface(staying, WithMonitorID("staying"))
	stayingSurface.Open(monitor.Dialog{Title: "Staying"})
	stayingSurface.Close()
	prog.Close()

	events := reporter.GetEvents()
	if got := kindsFor(events, "leaving"); !equalKinds(got, []Kind{KindOpened}) {
		t.Errorf("Expected the event buffered before Unsubscribe to be delivered, got %v", got)
	}
	if got := kindsFor(events, "staying"); !equalKinds(got, []Kind{KindOpened, KindClosed}) {
		t.Errorf("Unexpected events for the remaining monitor: %v", got)
	}
}

func TestProgress_ConcurrentMonitors(t *testing.T) {
	collector := newFakeCollector(1)
	reporter := &mockReporter{}
	prog, err := New(WithCollectors(collector), WithReporters(reporter))
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	const monitors, steps = 10, 10
	var wg sync.WaitGroup
	for i := 0; i < monitors; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := fmt.Sprintf("m-%d", id)
			showDisplay(NewSurface(collector, WithMonitorID(name)), name, steps)
		}(i)
	}
	wg.Wait()
	prog.Close()

	events := reporter.GetEvents()
	if len(events) != monitors*len(displayKinds(steps)) {
		t.Fatalf("Expected %d events, got %d", monitors*len(displayKinds(steps)), len(events))
	}
	for i := 0; i < monitors; i++ {
		name := fmt.Sprintf("m-%d", i)
		if got := kindsFor(events, name); !equalKinds(got, displayKinds(steps)) {
			t.Errorf("Events of %s out of order: %v", name, got)
		}
	}
}

func TestProgress_CloseAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	collector := newFakeCollector(1)

	prog, err := New(
		WithContext(ctx),
		WithCollectors(collector),
		WithReporters(&mockReporter{}),
	)
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		prog.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after context cancellation")
	}
}

func TestNoopReporter(t *testing.T) {
	reporter := NewNoopReporter()
	reporter.Report(Event{Kind: KindProgress, Current: 10, Total: 45})
}
