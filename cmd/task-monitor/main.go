package main

import (
	"fmt"
	"os"
	"time"

	"github.com/konveyor/task-monitor/monitor"
	"github.com/konveyor/task-monitor/progress/collector"
	"github.com/spf13/cobra"
)

var (
	configFile     string
	logLevel       int
	enableJaeger   bool
	jaegerEndpoint string
	progressOutput string
	progressFormat string
	steps          int
	stepInterval   time.Duration
	throttle       time.Duration
)

func RootCmd() *cobra.Command {
	config := monitor.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "task-monitor",
		Short: "Run a simulated long task under a task monitor",
		Long: `Runs a simulated long task and reports it through a task monitor.

The monitor stays hidden when the task finishes within --delay. Press Ctrl+C
(or "c" in the tui) to ask for cancellation; the monitor confirms before the
task is cancelled.`,
		PreRunE: func(c *cobra.Command, args []string) error {
			if configFile != "" {
				if err := config.MergeFile(configFile, c.Flags()); err != nil {
					return err
				}
			}
			return validateFlags()
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(c.Context(), config)
		},
		SilenceUsage: true,
	}

	config.AddFlags(rootCmd)
	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML file with monitor settings, flags given on the command line win")
	rootCmd.Flags().IntVar(&logLevel, "verbose", 0, "level for logging output")
	rootCmd.Flags().BoolVar(&enableJaeger, "enable-jaeger", false, "enable tracer exports to jaeger endpoint")
	rootCmd.Flags().StringVar(&jaegerEndpoint, "jaeger-endpoint", "http://localhost:14268/api/traces", "jaeger endpoint to collect tracing data")
	rootCmd.Flags().StringVar(&progressOutput, "progress-output", "stderr", "where to write display events (stderr, stdout, or file path)")
	rootCmd.Flags().StringVar(&progressFormat, "progress-format", "bar", "format for the display: bar, text, json, or tui")
	rootCmd.Flags().IntVar(&steps, "steps", 40, "number of work items the simulated task processes")
	rootCmd.Flags().DurationVar(&stepInterval, "step-interval", 100*time.Millisecond, "time the simulated task spends on each item")
	rootCmd.Flags().DurationVar(&throttle, "throttle", collector.DefaultThrottleInterval, "minimum interval between progress events, 0 forwards every refresh")

	return rootCmd
}

func main() {
	if err := RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func validateFlags() error {
	switch progressFormat {
	case "bar", "text", "json", "tui":
	default:
		return fmt.Errorf("must select one of bar, text, json or tui for progress format, got %q", progressFormat)
	}
	if steps < 0 {
		return fmt.Errorf("steps must not be negative")
	}
	if stepInterval < 0 {
		return fmt.Errorf("step interval must not be negative")
	}
	if throttle < 0 {
		return fmt.Errorf("throttle must not be negative")
	}
	return nil
}
