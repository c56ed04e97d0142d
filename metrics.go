package termgo

import "sync/atomic"

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
//
// Make operations are nanosecond-scale, so collectors receive counts only;
// timing them would cost more than the operation itself.
type MetricsCollector interface {
	// RecordMake is called after each factory operation.
	RecordMake(kind Kind)

	// RecordResolve is called after each ref resolution.
	// err is nil if the ref was valid for the arena.
	RecordResolve(kind Kind, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMake(Kind)           {}
func (NoopMetricsCollector) RecordResolve(Kind, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	VariableMakes    atomic.Int64
	AbstractionMakes atomic.Int64
	ApplicationMakes atomic.Int64
	DeclarationMakes atomic.Int64
	EvaluationMakes  atomic.Int64
	ResolveCount     atomic.Int64
	ResolveErrors    atomic.Int64
}

// RecordMake implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMake(kind Kind) {
	switch kind {
	case KindVariable:
		b.VariableMakes.Add(1)
	case KindAbstraction:
		b.AbstractionMakes.Add(1)
	case KindApplication:
		b.ApplicationMakes.Add(1)
	case KindDeclaration:
		b.DeclarationMakes.Add(1)
	case KindEvaluation:
		b.EvaluationMakes.Add(1)
	}
}

// RecordResolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordResolve(kind Kind, err error) {
	b.ResolveCount.Add(1)
	if err != nil {
		b.ResolveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		VariableMakes:    b.VariableMakes.Load(),
		AbstractionMakes: b.AbstractionMakes.Load(),
		ApplicationMakes: b.ApplicationMakes.Load(),
		DeclarationMakes: b.DeclarationMakes.Load(),
		EvaluationMakes:  b.EvaluationMakes.Load(),
		ResolveCount:     b.ResolveCount.Load(),
		ResolveErrors:    b.ResolveErrors.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	VariableMakes    int64
	AbstractionMakes int64
	ApplicationMakes int64
	DeclarationMakes int64
	EvaluationMakes  int64
	ResolveCount     int64
	ResolveErrors    int64
}
