package progress

import (
	"time"

	"github.com/konveyor/task-monitor/monitor"
)

var _ monitor.Display = (*Surface)(nil)

// Surface is a monitor.Display that has no window of its own. Each call the
// monitor makes is turned into an Event and handed to a Reporter, usually a
// Collector subscribed to a Progress hub.
//
// Like any Display, a Surface is only called from the dispatcher goroutine and
// keeps no lock.
type Surface struct {
	reporter      Reporter
	monitorID     string
	title         string
	open          bool
	mode          monitor.WidgetMode
	cancelEnabled bool
	hideValue     bool
	value         int64
	maximum       int64
	status        string
	subStatus     string
	now           func() time.Time
}

// SurfaceOption configures a Surface.
type SurfaceOption func(s *Surface)

// WithMonitorID tags every event with the ID of the monitor driving the
// surface.
func WithMonitorID(id string) SurfaceOption {
	return func(s *Surface) {
		s.monitorID = id
	}
}

// NewSurface creates a surface that reports to r.
func NewSurface(r Reporter, opts ...SurfaceOption) *Surface {
	s := &Surface{
		reporter: r,
		mode:     monitor.WidgetIndeterminate,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetMonitorID sets the monitor ID after creation, for monitors whose ID is
// generated by monitor.New.
func (s *Surface) SetMonitorID(id string) {
	s.monitorID = id
}

// IsOpen reports whether the monitor has opened the surface and not closed it.
func (s *Surface) IsOpen() bool {
	return s.open
}

func (s *Surface) Open(dialog monitor.Dialog) {
	s.open = true
	s.title = dialog.Title
	event := Event{
		Kind:          KindOpened,
		Modal:         dialog.Modal,
		Indeterminate: s.mode == monitor.WidgetIndeterminate,
		CancelEnabled: s.cancelEnabled,
		HideValue:     s.hideValue,
	}
	if !event.Indeterminate {
		event.Current, event.Total = s.value, s.maximum
		event.Percent = percent(s.value, s.maximum)
	}
	s.emit(event)
	if s.status != "" {
		s.emit(Event{Kind: KindStatus, Message: s.status})
	}
	if s.subStatus != "" {
		s.emit(Event{Kind: KindSubStatus, Message: s.subStatus})
	}
}

func (s *Surface) Close() {
	if !s.open {
		return
	}
	s.open = false
	s.emit(Event{Kind: KindClosed})
}

// SetStatusText reports text while open. Text set on a closed surface is
// replayed when it opens, the way a hidden dialog keeps its labels.
func (s *Surface) SetStatusText(text string) {
	s.status = text
	if s.open {
		s.emit(Event{Kind: KindStatus, Message: text})
	}
}

func (s *Surface) SetSubStatusText(text string) {
	s.subStatus = text
	if s.open {
		s.emit(Event{Kind: KindSubStatus, Message: text})
	}
}

func (s *Surface) SetProgressWidget(mode monitor.WidgetMode) {
	changed := s.mode != mode
	s.mode = mode
	// before Open the mode is only remembered; Opened carries it
	if s.open && changed {
		s.emit(Event{Kind: KindMode, Indeterminate: mode == monitor.WidgetIndeterminate})
	}
}

// SetProgress reports progress while the surface is open and shows a bar.
// Before Open the values are kept for the Opened event.
func (s *Surface) SetProgress(value, maximum int64) {
	s.value, s.maximum = value, maximum
	if !s.open || s.mode == monitor.WidgetIndeterminate {
		return
	}
	s.emit(Event{
		Kind:      KindProgress,
		Current:   value,
		Total:     maximum,
		Percent:   percent(value, maximum),
		HideValue: s.hideValue,
	})
}

func (s *Surface) SetCancelEnabled(enabled bool) {
	changed := s.cancelEnabled != enabled
	s.cancelEnabled = enabled
	if s.open && changed {
		s.emit(Event{Kind: KindCancelEnabled, CancelEnabled: enabled})
	}
}

func (s *Surface) SetShowProgressValue(show bool) {
	changed := s.hideValue == show
	s.hideValue = !show
	if s.open && changed {
		s.emit(Event{Kind: KindShowValue, HideValue: s.hideValue})
	}
}

// Repack has nothing to lay out.
func (s *Surface) Repack() {}

func (s *Surface) emit(event Event) {
	event.Timestamp = s.now()
	event.Monitor = s.monitorID
	event.Title = s.title
	s.reporter.Report(event)
}

func percent(value, maximum int64) float64 {
	if maximum <= 0 {
		return 0
	}
	pct := float64(value) / float64(maximum) * 100.0
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
