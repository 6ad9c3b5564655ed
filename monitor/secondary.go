package monitor

// SecondaryMonitor tracks the progress of an inner sub-task. It has its own
// progress range but shares cancellation and completion with the Monitor it
// came from, and its messages go to that monitor's secondary status line.
type SecondaryMonitor struct {
	parent *Monitor
	// guarded by parent.mu
	progress progressState
}

func (s *SecondaryMonitor) Initialize(max int64) {
	s.parent.mu.Lock()
	s.progress.initialize(max)
	s.parent.mu.Unlock()
}

func (s *SecondaryMonitor) SetProgress(value int64) {
	s.parent.mu.Lock()
	s.progress.setProgress(value)
	s.parent.mu.Unlock()
}

func (s *SecondaryMonitor) IncrementProgress(amount int64) {
	s.parent.mu.Lock()
	s.progress.incrementProgress(amount)
	s.parent.mu.Unlock()
}

func (s *SecondaryMonitor) Progress() int64 {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	return s.progress.value
}

func (s *SecondaryMonitor) SetMaximum(max int64) {
	s.parent.mu.Lock()
	s.progress.setMaximum(max)
	s.parent.mu.Unlock()
}

func (s *SecondaryMonitor) Maximum() int64 {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	return s.progress.maximum
}

func (s *SecondaryMonitor) Percent() float64 {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	return s.progress.percent()
}

func (s *SecondaryMonitor) SetIndeterminate(indeterminate bool) {
	s.parent.mu.Lock()
	s.progress.setIndeterminate(indeterminate)
	s.parent.mu.Unlock()
}

func (s *SecondaryMonitor) IsIndeterminate() bool {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	return s.progress.indeterminate
}

// SetMessage publishes to the parent's secondary status line.
func (s *SecondaryMonitor) SetMessage(message string) {
	s.parent.SetSecondaryMessage(message)
}

// SetShowProgressValue applies to the parent's display, which is the only one.
func (s *SecondaryMonitor) SetShowProgressValue(show bool) {
	s.parent.SetShowProgressValue(show)
}

func (s *SecondaryMonitor) CheckCancelled() error {
	return s.parent.CheckCancelled()
}

func (s *SecondaryMonitor) Cancel() {
	s.parent.Cancel()
}

func (s *SecondaryMonitor) ClearCancel() {
	s.parent.ClearCancel()
}

func (s *SecondaryMonitor) IsCancelled() bool {
	return s.parent.IsCancelled()
}

func (s *SecondaryMonitor) OnCancelled(fn func()) (remove func()) {
	return s.parent.OnCancelled(fn)
}

func (s *SecondaryMonitor) IsCompleted() bool {
	return s.parent.IsCompleted()
}

func (s *SecondaryMonitor) Done() <-chan struct{} {
	return s.parent.Done()
}
