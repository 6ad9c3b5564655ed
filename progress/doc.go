// Package progress renders task monitors without a graphical toolkit.
//
// A Surface implements monitor.Display by turning every display call into an
// Event. Events travel through a Collector into the Progress hub, which fans
// them out to any number of Reporters:
//
//	Monitor -> Surface -> Collector -> Progress -> Reporter(s)
//
// The package includes:
//
//   - Surface, the event-emitting display
//   - LinePrompter, a monitor.Prompter for line-oriented terminals
//   - Progress, the collector/reporter hub
//   - NoopReporter, the default when nothing renders events
//
// Collectors live in progress/collector and reporters (text, JSON, bar,
// channel) in progress/reporter.
//
// # Basic Usage
//
//	col := collector.NewThrottledCollector(200 * time.Millisecond)
//	prog, _ := progress.New(
//	    progress.WithContext(ctx),
//	    progress.WithCollectors(col),
//	    progress.WithReporters(reporter.NewTextReporter(os.Stderr)),
//	)
//	defer prog.Close()
//
//	surface := progress.NewSurface(col)
//	m, _ := monitor.New(d, task,
//	    monitor.WithDisplay(surface),
//	    monitor.WithPrompter(progress.NewLinePrompter(os.Stdin, os.Stderr)),
//	)
//	surface.SetMonitorID(m.ID())
//
// # Thread Safety
//
// Progress, collectors and reporters are safe for concurrent use. A Surface is
// driven by the monitor's dispatcher only.
package progress
