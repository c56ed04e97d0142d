// Package termgo provides arena allocation for lambda calculus programs.
//
// This file implements the fluent builder API for creating Program instances.
// Builders are immutable - each method returns a new builder with the updated
// configuration.
package termgo

import (
	"fmt"

	"github.com/hupe1980/termgo/resource"
	"github.com/hupe1980/termgo/symbol"
)

// New creates a new program builder.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents
// accidental state sharing.
//
// Example:
//
//	p, err := termgo.New().
//	    SegmentSize(4096).
//	    MaxNodes(1 << 20).
//	    Logger(termgo.NewTextLogger(slog.LevelInfo)).
//	    Build()
func New() Builder {
	return Builder{}
}

// Builder is an immutable fluent builder for creating Program instances.
// Each method returns a new builder with the updated configuration.
type Builder struct {
	segmentSize int
	maxNodes    int
	logger      *Logger
	metrics     MetricsCollector
	resource    *resource.Controller
	symbols     *symbol.Table
}

// SegmentSize sets the per-kind segment capacity in nodes, rounded up to
// the next power of two.
// Default: 1024. Larger segments allocate less often.
func (b Builder) SegmentSize(n int) Builder {
	b.segmentSize = n
	return b
}

// MaxNodes caps the node count of each arena. A Make operation beyond
// the cap panics with ErrBudgetExceeded.
// Default: 0 (unbounded).
func (b Builder) MaxNodes(n int) Builder {
	b.maxNodes = n
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder) Logger(l *Logger) Builder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	b.metrics = mc
	return b
}

// Resource attaches a shared resource controller. Both arenas reserve
// node slots from it, so one budget bounds the whole program (and any
// other arenas sharing the controller).
func (b Builder) Resource(rc *resource.Controller) Builder {
	b.resource = rc
	return b
}

// Symbols sets a caller-owned symbol table instead of a fresh one.
// Sharing a table across programs is safe; Table is self-synchronized.
func (b Builder) Symbols(t *symbol.Table) Builder {
	b.symbols = t
	return b
}

// Build creates the Program.
func (b Builder) Build() (*Program, error) {
	if b.maxNodes < 0 {
		return nil, fmt.Errorf("termgo: max nodes must not be negative, got %d", b.maxNodes)
	}

	var optFns []Option
	if b.segmentSize > 0 {
		optFns = append(optFns, WithSegmentSize(b.segmentSize))
	}
	if b.maxNodes > 0 {
		optFns = append(optFns, WithMaxNodes(b.maxNodes))
	}
	if b.logger != nil {
		optFns = append(optFns, WithLogger(b.logger))
	}
	if b.metrics != nil {
		optFns = append(optFns, WithMetricsCollector(b.metrics))
	}
	if b.resource != nil {
		optFns = append(optFns, WithResource(b.resource))
	}

	p := NewProgram(optFns...)
	if b.symbols != nil {
		p.symbols = b.symbols
	}

	return p, nil
}

// MustBuild creates the Program, panicking on error.
func (b Builder) MustBuild() *Program {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
