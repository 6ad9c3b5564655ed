package monitor

// progressState is the progress and cancellation record of a monitor.
//
// It has no lock of its own; every access happens with the owning Monitor's
// mutex held.
type progressState struct {
	value   int64
	maximum int64

	// hasProgress is true when the task reports numeric progress, either
	// declared up front or after Initialize.
	hasProgress bool

	// indeterminate is set by the task itself and is sticky: Initialize does
	// not clear it, only an explicit setIndeterminate(false) does.
	indeterminate bool

	cancelled     bool
	cancelEnabled bool

	// hideValue suppresses the numbers printed with the bar.
	hideValue bool
}

func (p *progressState) setProgress(value int64) {
	p.value = value
}

func (p *progressState) incrementProgress(amount int64) {
	p.value += amount
}

func (p *progressState) setMaximum(max int64) {
	p.maximum = max
}

// initialize starts a fresh determinate range. It reports false, and changes
// nothing, when the task has marked itself indeterminate.
func (p *progressState) initialize(max int64) bool {
	if p.indeterminate {
		return false
	}
	p.value = 0
	p.maximum = max
	p.hasProgress = true
	return true
}

func (p *progressState) setIndeterminate(indeterminate bool) {
	p.indeterminate = indeterminate
}

func (p *progressState) widgetMode() WidgetMode {
	if p.indeterminate || !p.hasProgress {
		return WidgetIndeterminate
	}
	return WidgetDeterminate
}

func (p *progressState) percent() float64 {
	if p.maximum <= 0 {
		return 0
	}
	pct := float64(p.value) / float64(p.maximum) * 100.0
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// requestCancel marks the state cancelled and reports whether this call made
// the transition.
func (p *progressState) requestCancel() bool {
	if p.cancelled {
		return false
	}
	p.cancelled = true
	return true
}

func (p *progressState) clearCancel() {
	p.cancelled = false
}

type listenerEntry struct {
	id uint64
	fn func()
}

// listenerSet holds cancel observers in registration order. Guarded by the
// owning Monitor's mutex.
type listenerSet struct {
	nextID  uint64
	entries []listenerEntry
}

func (l *listenerSet) add(fn func()) uint64 {
	l.nextID++
	l.entries = append(l.entries, listenerEntry{id: l.nextID, fn: fn})
	return l.nextID
}

func (l *listenerSet) remove(id uint64) {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

// snapshot returns the listeners to notify once the lock is released.
func (l *listenerSet) snapshot() []func() {
	if len(l.entries) == 0 {
		return nil
	}
	fns := make([]func(), len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	return fns
}

func (l *listenerSet) len() int {
	return len(l.entries)
}
