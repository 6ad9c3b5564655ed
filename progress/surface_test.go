package progress

import (
	"context"
	"testing"
	"time"

	"github.com/konveyor/task-monitor/dispatcher"
	"github.com/konveyor/task-monitor/monitor"
)

func kinds(events []Event) []Kind {
	out := make([]Kind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSurface_OpenReplaysState(t *testing.T) {
	reporter := &mockReporter{}
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	surface := NewSurface(reporter, WithMonitorID("m-1"))
	surface.now = func() time.Time { return fixed }

	surface.SetStatusText("before open")
	surface.SetCancelEnabled(true)
	surface.SetProgressWidget(monitor.WidgetDeterminate)
	surface.SetProgress(3, 10)
	if reporter.EventCount() != 0 {
		t.Fatalf("Expected no events before open, got %v", kinds(reporter.GetEvents()))
	}

	surface.Open(monitor.Dialog{Title: "Indexing", Modal: true, CanCancel: true})
	if !surface.IsOpen() {
		t.Error("Expected surface to be open")
	}

	events := reporter.GetEvents()
	if !equalKinds(kinds(events), []Kind{KindOpened, KindStatus}) {
		t.Fatalf("Unexpected events %v", kinds(events))
	}
	opened := events[0]
	if opened.Monitor != "m-1" || opened.Title != "Indexing" || !opened.Modal || !opened.CancelEnabled {
		t.Errorf("Unexpected opened event %+v", opened)
	}
	if opened.Indeterminate || opened.Current != 3 || opened.Total != 10 || opened.Percent != 30 {
		t.Errorf("Expected determinate 3/10 in opened event, got %+v", opened)
	}
	if !opened.Timestamp.Equal(fixed) {
		t.Errorf("Expected timestamp from clock, got %v", opened.Timestamp)
	}
	if events[1].Message != "before open" {
		t.Errorf("Expected replayed status, got %q", events[1].Message)
	}
}

func TestSurface_EventsWhileOpen(t *testing.T) {
	reporter := &mockReporter{}
	surface := NewSurface(reporter)

	surface.Open(monitor.Dialog{Title: "Scan"})
	surface.SetProgress(1, 10)
	surface.SetProgressWidget(monitor.WidgetDeterminate)
	surface.SetProgressWidget(monitor.WidgetDeterminate)
	surface.SetProgress(2, 10)
	surface.SetSubStatusText("detail")
	surface.SetCancelEnabled(true)
	surface.Repack()
	surface.Close()
	surface.Close()

	want := []Kind{KindOpened, KindMode, KindProgress, KindSubStatus, KindCancelEnabled, KindClosed}
	if got := kinds(reporter.GetEvents()); !equalKinds(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	for _, e := range reporter.GetEvents() {
		if e.Title != "Scan" {
			t.Errorf("Expected title on every event, got %+v", e)
		}
	}
}

func TestSurface_DrivenByMonitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := dispatcher.New()
	go d.Run(ctx)
	defer d.Close()

	reporter := &mockReporter{}
	surface := NewSurface(reporter)
	m, err := monitor.New(d, monitor.Task{Title: "Build", Modal: true, HasProgress: true, CanCancel: true},
		monitor.WithDisplay(surface))
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}
	surface.SetMonitorID(m.ID())

	m.Initialize(4)
	m.SetMessage("compiling")
	if err := m.Show(ctx, 0); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	m.TaskProcessed()
	if err := d.RunNow(ctx, func(context.Context) {}); err != nil {
		t.Fatalf("RunNow failed: %v", err)
	}

	events := reporter.GetEvents()
	if len(events) == 0 || events[0].Kind != KindOpened {
		t.Fatalf("Expected opened first, got %v", kinds(events))
	}
	if events[len(events)-1].Kind != KindClosed {
		t.Errorf("Expected closed last, got %v", kinds(events))
	}
	for _, e := range events {
		if e.Monitor != m.ID() {
			t.Errorf("Expected monitor ID %s, got %s", m.ID(), e.Monitor)
		}
	}
	if surface.IsOpen() {
		t.Error("Expected surface to be closed after TaskProcessed")
	}
}

func TestSurface_HiddenProgressValue(t *testing.T) {
	reporter := &mockReporter{}
	surface := NewSurface(reporter)

	surface.SetShowProgressValue(false)
	surface.SetProgressWidget(monitor.WidgetDeterminate)
	surface.Open(monitor.Dialog{Title: "Quiet"})
	surface.SetProgress(5, 10)
	surface.SetShowProgressValue(false)
	surface.SetShowProgressValue(true)
	surface.SetProgress(6, 10)

	events := reporter.GetEvents()
	want := []Kind{KindOpened, KindProgress, KindShowValue, KindProgress}
	if got := kinds(events); !equalKinds(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	if !events[0].HideValue || !events[1].HideValue {
		t.Errorf("Expected the value hidden while opening, got %+v and %+v", events[0], events[1])
	}
	if events[2].HideValue || events[3].HideValue {
		t.Errorf("Expected the value shown again, got %+v and %+v", events[2], events[3])
	}
}
