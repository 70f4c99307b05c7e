package chronicle

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/crimson-sun/chronicle/internal/pipeline"
)

type options struct {
	seed       int64
	minSamples int
	logger     *zap.Logger
	registerer prometheus.Registerer
}

// Option configures a Chronicle instance.
type Option func(*options)

// WithSeed sets the seed for the train/validation split. Default: 42.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithMinSamples raises the smallest training set accepted. Values below
// the default of 10 are ignored.
func WithMinSamples(n int) Option {
	return func(o *options) {
		o.minSamples = max(n, pipeline.MinTrainingSamples)
	}
}

// WithLogger routes internal logs to l. Default: discarded.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRegisterer registers the Prometheus metrics on r. Default: unregistered.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

func defaultOptions() options {
	return options{
		seed:       42,
		minSamples: pipeline.MinTrainingSamples,
	}
}
