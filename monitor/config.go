package monitor

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// Config holds the values needed to build a Monitor. It binds to cobra flags
// and can be loaded from a YAML file.
//
// Example usage with cobra:
//
//	config := monitor.DefaultConfig()
//	cmd := &cobra.Command{
//	    Use: "run",
//	    RunE: func(cmd *cobra.Command, args []string) error {
//	        m, err := monitor.New(d, config.Task(), config.ToOptions()...)
//	        if err != nil {
//	            return err
//	        }
//	        defer m.Dispose()
//	        return m.Show(cmd.Context(), config.Delay)
//	    },
//	}
//	config.AddFlags(cmd)
type Config struct {
	Title       string `yaml:"title"`
	CanCancel   bool   `yaml:"canCancel"`
	Modal       bool   `yaml:"modal"`
	HasProgress bool   `yaml:"hasProgress"`

	// Delay is how long Show waits before presenting the display.
	Delay time.Duration `yaml:"delay"`

	// MaxDelay caps Delay. Zero uses DefaultMaxDelay.
	MaxDelay time.Duration `yaml:"maxDelay"`

	// PollInterval is the completion re-check interval of a blocking Show.
	PollInterval time.Duration `yaml:"pollInterval"`

	// RefreshInterval is how often a visible display is sent progress.
	RefreshInterval time.Duration `yaml:"refreshInterval"`

	// CancelQuestion is a mustache template for the cancel prompt.
	CancelQuestion string `yaml:"cancelQuestion"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Title:           "Working",
		CanCancel:       true,
		HasProgress:     true,
		Delay:           500 * time.Millisecond,
		MaxDelay:        DefaultMaxDelay,
		PollInterval:    DefaultPollInterval,
		RefreshInterval: DefaultRefreshInterval,
		CancelQuestion:  DefaultCancelQuestion,
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("unable to read monitor config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("unable to parse monitor config %s: %w", path, err)
	}
	return config, nil
}

// AddFlags adds all configuration flags to the given cobra command. Current
// field values become the flag defaults.
func (c *Config) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.Title, "title", c.Title, "title shown by the task monitor")
	cmd.Flags().BoolVar(&c.CanCancel, "can-cancel", c.CanCancel, "allow the user to cancel the task")
	cmd.Flags().BoolVar(&c.Modal, "modal", c.Modal, "block in show until the task completes or the monitor is visible")
	cmd.Flags().BoolVar(&c.HasProgress, "has-progress", c.HasProgress, "show a progress bar instead of an activity indicator")
	cmd.Flags().DurationVar(&c.Delay, "delay", c.Delay, "how long to wait before showing the monitor")
	cmd.Flags().DurationVar(&c.MaxDelay, "max-delay", c.MaxDelay, "upper bound for --delay")
	cmd.Flags().DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "completion re-check interval while a modal show waits")
	cmd.Flags().DurationVar(&c.RefreshInterval, "refresh-interval", c.RefreshInterval, "how often the visible monitor is sent progress")
	cmd.Flags().StringVar(&c.CancelQuestion, "cancel-question", c.CancelQuestion, "mustache template for the cancel confirmation, {{title}} is available")
}

// MergeFile loads path and copies every value whose flag was not set
// explicitly on the command line, so flags win over the file.
func (c *Config) MergeFile(path string, flags *pflag.FlagSet) error {
	fromFile, err := LoadConfig(path)
	if err != nil {
		return err
	}
	changed := func(name string) bool {
		if flags == nil {
			return false
		}
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	merges := []struct {
		flag  string
		apply func()
	}{
		{"title", func() { c.Title = fromFile.Title }},
		{"can-cancel", func() { c.CanCancel = fromFile.CanCancel }},
		{"modal", func() { c.Modal = fromFile.Modal }},
		{"has-progress", func() { c.HasProgress = fromFile.HasProgress }},
		{"delay", func() { c.Delay = fromFile.Delay }},
		{"max-delay", func() { c.MaxDelay = fromFile.MaxDelay }},
		{"poll-interval", func() { c.PollInterval = fromFile.PollInterval }},
		{"refresh-interval", func() { c.RefreshInterval = fromFile.RefreshInterval }},
		{"cancel-question", func() { c.CancelQuestion = fromFile.CancelQuestion }},
	}
	for _, merge := range merges {
		if !changed(merge.flag) {
			merge.apply()
		}
	}
	return nil
}

// Task returns the task description of this config.
func (c *Config) Task() Task {
	return Task{
		Title:       c.Title,
		CanCancel:   c.CanCancel,
		Modal:       c.Modal,
		HasProgress: c.HasProgress,
	}
}

// ToOptions converts the config into monitor options. Zero values are left
// out so the monitor falls back to its defaults; invalid values surface as
// errors from New.
func (c *Config) ToOptions() []Option {
	options := []Option{}
	if c.MaxDelay != 0 {
		options = append(options, WithMaxDelay(c.MaxDelay))
	}
	if c.PollInterval != 0 {
		options = append(options, WithPollInterval(c.PollInterval))
	}
	if c.RefreshInterval != 0 {
		options = append(options, WithRefreshInterval(c.RefreshInterval))
	}
	if c.CancelQuestion != "" {
		options = append(options, WithCancelQuestion(c.CancelQuestion))
	}
	return options
}
