package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// RoundInstrumenter traces and times each receive/reply round of a conversation
type RoundInstrumenter struct {
	tracer         trace.Tracer
	conversationID string
	roundsActive   metric.Int64UpDownCounter
	roundDuration  metric.Float64Histogram
	roundsTotal    metric.Int64Counter
	now            func() time.Time
}

// NewRoundInstrumenter creates the round instruments under the given metric prefix
func NewRoundInstrumenter(tracer trace.Tracer, meter metric.Meter, prefix, conversationID string) (*RoundInstrumenter, error) {
	roundsActive, err := meter.Int64UpDownCounter(
		prefix+"_rounds_active",
		metric.WithDescription("Rounds currently being processed"),
	)
	if err != nil {
		return nil, err
	}

	roundDuration, err := meter.Float64Histogram(
		prefix+"_round_duration_seconds",
		metric.WithDescription("Time spent generating and sending a reply"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	roundsTotal, err := meter.Int64Counter(
		prefix+"_rounds_total",
		metric.WithDescription("Total rounds processed"),
	)
	if err != nil {
		return nil, err
	}

	return &RoundInstrumenter{
		tracer:         tracer,
		conversationID: conversationID,
		roundsActive:   roundsActive,
		roundDuration:  roundDuration,
		roundsTotal:    roundsTotal,
		now:            time.Now,
	}, nil
}

// StartRound opens a span for one round. The returned func ends it and records the
// outcome; it must be called exactly once.
func (r *RoundInstrumenter) StartRound(ctx context.Context, round int) (context.Context, func(error)) {
	r.roundsActive.Add(ctx, 1)

	ctx, span := r.tracer.Start(ctx, "conversation.round",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("conversation.id", r.conversationID),
			attribute.Int("conversation.round", round),
		),
	)
	start := r.now()

	return ctx, func(err error) {
		defer span.End()
		r.roundsActive.Add(ctx, -1)

		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		attrs := metric.WithAttributes(attribute.String("status", status))
		r.roundDuration.Record(ctx, r.now().Sub(start).Seconds(), attrs)
		r.roundsTotal.Add(ctx, 1, attrs)
	}
}
