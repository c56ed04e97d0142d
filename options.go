package termgo

import (
	"log/slog"

	"github.com/hupe1980/termgo/internal/container"
	"github.com/hupe1980/termgo/resource"
)

type options struct {
	segmentSize int
	maxNodes    int
	metrics     MetricsCollector
	logger      *Logger
	resource    *resource.Controller
}

// Option configures arena construction.
//
// Options primarily exist to avoid exploding the API surface with
// configuration-specific constructor variants.
type Option func(*options)

// WithSegmentSize configures the per-kind segment capacity, in nodes.
// The value is rounded up to the next power of two. Larger segments
// allocate less often; smaller segments waste less space on tiny arenas.
//
// If n <= 0, the default of 1024 nodes is used.
func WithSegmentSize(n int) Option {
	return func(o *options) {
		o.segmentSize = n
	}
}

// WithMaxNodes caps the total number of nodes the arena may hold. A Make
// operation beyond the cap panics with ErrBudgetExceeded: exhaustion is a
// hard failure, not a recoverable error.
//
// If n <= 0, the arena is unbounded (up to MaxNodeIndex nodes per kind).
func WithMaxNodes(n int) Option {
	return func(o *options) {
		o.maxNodes = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &termgo.BasicMetricsCollector{}
//	arena := termgo.NewTermArena(termgo.WithMetricsCollector(metrics))
//	// ... use arena ...
//	stats := metrics.GetStats()
//	fmt.Printf("Variables made: %d\n", stats.VariableMakes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := termgo.NewJSONLogger(slog.LevelInfo)
//	arena := termgo.NewTermArena(termgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResource attaches a resource controller. Arenas reserve node slots
// from it segment by segment and release them on Close, so one budget can
// bound several arenas. A Make operation the controller rejects panics
// with ErrBudgetExceeded.
func WithResource(c *resource.Controller) Option {
	return func(o *options) {
		o.resource = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		segmentSize: container.DefaultSegmentSize,
		metrics:     NoopMetricsCollector{},
		logger:      NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
