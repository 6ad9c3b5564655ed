package monitor

// Noop is a TaskMonitor that ignores everything and is never cancelled. Use it
// to call code that wants a monitor when nobody is watching.
type Noop struct{}

func (Noop) Initialize(int64) {}
func (Noop) SetProgress(int64) {}
func (Noop) IncrementProgress(int64) {}
func (Noop) Progress() int64 { return 0 }
func (Noop) SetMaximum(int64) {}
func (Noop) Maximum() int64 { return 0 }
func (Noop) SetIndeterminate(bool) {}
func (Noop) IsIndeterminate() bool { return false }
func (Noop) SetMessage(string) {}
func (Noop) SetShowProgressValue(bool) {}
func (Noop) CheckCancelled() error { return nil }
func (Noop) Cancel() {}
func (Noop) ClearCancel() {}
func (Noop) IsCancelled() bool { return false }

func (Noop) OnCancelled(func()) (remove func()) {
	return func() {}
}
