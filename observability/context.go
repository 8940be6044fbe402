package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Phases of a stage.
const (
	PhaseResolve = "resolve"
	PhaseExecute = "execute"
)

// StageOperation tracks one phase of one stage: a span plus the duration
// metric recorded when it ends.
type StageOperation struct {
	StageID   string
	Phase     string
	StartTime time.Time
	Metrics   *Metrics

	span trace.Span
}

// StartStage opens a span for a stage phase. metrics may be nil.
func StartStage(ctx context.Context, metrics *Metrics, stageID string, index int, phase string) (context.Context, *StageOperation) {
	name := SpanResolve
	if phase == PhaseExecute {
		name = SpanExecute
	}
	attrs := StageAttributes(stageID, index)
	ctx, span := StartSpan(ctx, name, attrs...)
	return ctx, &StageOperation{
		StageID:   stageID,
		Phase:     phase,
		StartTime: time.Now(),
		Metrics:   metrics,
		span:      span,
	}
}

// SetAttributes annotates the operation's span.
func (op *StageOperation) SetAttributes(attrs ...attribute.KeyValue) {
	op.span.SetAttributes(attrs...)
}

// End closes the span and records the phase duration.
func (op *StageOperation) End(ctx context.Context, err error) {
	EndSpan(op.span, err)
	op.Metrics.RecordStage(ctx, op.StageID, op.Phase, op.Duration(), err)
}

// Duration returns the time elapsed since the operation started.
func (op *StageOperation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
