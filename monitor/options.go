package monitor

import (
	"fmt"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/go-logr/logr"
)

const (
	// DefaultMaxDelay caps the delay accepted by Show.
	DefaultMaxDelay = 200 * time.Second

	// DefaultPollInterval is how often a blocking Show re-checks completion.
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultRefreshInterval is how often a visible display is sent the
	// current progress value.
	DefaultRefreshInterval = 250 * time.Millisecond

	// DefaultCancelQuestion is the mustache template for the cancel prompt.
	// The template is rendered with the task's title.
	DefaultCancelQuestion = `Do you really want to cancel "{{{title}}}"?`

	cancelPromptTitle = "Cancel?"
)

type options struct {
	id              string
	display         Display
	prompter        Prompter
	log             logr.Logger
	maxDelay        time.Duration
	pollInterval    time.Duration
	refreshInterval time.Duration
	cancelQuestion  *mustache.Template
}

// Option configures a Monitor.
type Option func(opts *options) error

// WithDisplay sets the surface the monitor presents itself on.
func WithDisplay(display Display) Option {
	return func(opts *options) error {
		if display == nil {
			return fmt.Errorf("display must not be nil")
		}
		opts.display = display
		return nil
	}
}

// WithPrompter sets the surface used to confirm a user's cancel request.
func WithPrompter(prompter Prompter) Option {
	return func(opts *options) error {
		if prompter == nil {
			return fmt.Errorf("prompter must not be nil")
		}
		opts.prompter = prompter
		return nil
	}
}

func WithLogger(log logr.Logger) Option {
	return func(opts *options) error {
		opts.log = log
		return nil
	}
}

// WithID overrides the generated monitor ID that tags logs and spans.
func WithID(id string) Option {
	return func(opts *options) error {
		if id == "" {
			return fmt.Errorf("monitor id must not be empty")
		}
		opts.id = id
		return nil
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(opts *options) error {
		if d <= 0 {
			return fmt.Errorf("max delay must be positive, got %s", d)
		}
		opts.maxDelay = d
		return nil
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(opts *options) error {
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive, got %s", d)
		}
		opts.pollInterval = d
		return nil
	}
}

func WithRefreshInterval(d time.Duration) Option {
	return func(opts *options) error {
		if d <= 0 {
			return fmt.Errorf("refresh interval must be positive, got %s", d)
		}
		opts.refreshInterval = d
		return nil
	}
}

// WithCancelQuestion sets the mustache template used for the cancel prompt.
// The template sees a single variable, title.
func WithCancelQuestion(template string) Option {
	return func(opts *options) error {
		tmpl, err := mustache.ParseString(template)
		if err != nil {
			return fmt.Errorf("invalid cancel question template: %w", err)
		}
		opts.cancelQuestion = tmpl
		return nil
	}
}
