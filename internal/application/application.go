package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

const (
	SpanPrefix = "UC."

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// OrNop returns tel, or a discard-everything Observability when tel is nil.
func OrNop(tel observability.Observability) observability.Observability {
	if tel == nil {
		return observability.Nop()
	}
	return tel
}

// RED holds the use case request/duration instruments (usecase_requests_total, usecase_duration_seconds).
type RED struct {
	requests observability.Counter
	duration observability.Histogram
}

func NewRED(m observability.Metrics) RED {
	return RED{
		requests: m.Counter(observability.MUsecaseRequests),
		duration: m.Histogram(observability.MUsecaseDuration),
	}
}

func (r RED) Observe(useCase, outcome string, since time.Time) float64 {
	lat := time.Since(since).Seconds()
	if r.requests != nil {
		r.requests.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
	}
	if r.duration != nil {
		r.duration.Observe(lat,
			observability.L("use_case", useCase),
		)
	}
	return lat
}

// EndSpan records err (if any) with statusText and ends the span.
func EndSpan(span trace.Span, err error, statusText string) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, statusText)
	} else {
		span.SetStatus(codes.Ok, statusText)
	}
	span.End()
}

// DoneFields is the field set of the closing "use_case_done" log line.
func DoneFields(outcome, statusText string, latencySeconds float64, err error) []observability.Field {
	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
		observability.F("latency_seconds", latencySeconds),
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	return fields
}
