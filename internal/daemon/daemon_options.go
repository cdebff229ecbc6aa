package daemon

import (
	"time"
)

// Options contains optional configuration for the daemon.
// NewOptions should be used to create instances of Options.
type Options struct {
	// APIOptions contains functional options for the API server.
	APIOptions []APIOption

	// ReportMaxAge is how old an agent report may be before its host
	// renders as offline in fleet summaries.
	ReportMaxAge time.Duration
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
// Starts with default values, then applies options in order with later options overriding earlier ones.
func NewOptions(opts ...Option) (Options, error) {
	options := defaultOptions()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return Options{}, err
		}
	}

	return options, nil
}

// WithAPIOptions configures API server options.
// Replaces all previous API configuration including CORS settings.
func WithAPIOptions(apiOpts ...APIOption) Option {
	return func(o *Options) error {
		o.APIOptions = apiOpts
		return nil
	}
}

// WithReportMaxAge configures the staleness cutoff for agent reports.
func WithReportMaxAge(maxAge time.Duration) Option {
	return func(o *Options) error {
		o.ReportMaxAge = maxAge
		return nil
	}
}

// DefaultReportMaxAge is the default staleness cutoff for agent reports.
func DefaultReportMaxAge() time.Duration {
	return 5 * time.Minute
}

// defaultOptions returns Options with default values.
func defaultOptions() Options {
	return Options{
		ReportMaxAge: DefaultReportMaxAge(),
	}
}
