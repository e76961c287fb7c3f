// Package observability assembles the observability.Observability port from
// concrete tracer, logger and metric instruments.
package observability

import (
	"maps"

	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

// instruments resolves metric keys against what was registered. Unknown or
// nil instruments resolve to no-ops.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(name observability.MetricKey) observability.Counter {
	if c := m.counters[name]; c != nil {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h := m.histograms[name]; h != nil {
		return h
	}
	return observability.NopHistogram()
}

func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &provider{
		tracer: tracer,
		logger: logger,
		metrics: instruments{
			counters:   maps.Clone(counters),
			histograms: maps.Clone(histograms),
		},
	}
}

// ForService scopes obs to one pipeline service: spans come from tracer and
// every log line carries the service name. Metric instruments are shared.
func ForService(obs observability.Observability, tracer observability.Tracer, service string) observability.Observability {
	if obs == nil {
		obs = observability.Nop()
	}
	if tracer == nil {
		tracer = obs.Tracer()
	}
	logger := obs.Logger()
	if service != "" {
		logger = logger.With(observability.F("service", service))
	}
	return &provider{tracer: tracer, logger: logger, metrics: obs.Metrics()}
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
