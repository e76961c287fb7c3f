// Package bootstrap assembles the six fulfillment services from configuration and runs their HTTP servers.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-tracing/internal/config"
	domfraud "github.com/Zhima-Mochi/minishop-tracing/internal/domain/fraud"
	infraobs "github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/pkg/chaos"
	"github.com/Zhima-Mochi/minishop-tracing/internal/pkg/clock"
	"github.com/Zhima-Mochi/minishop-tracing/internal/pkg/logging"
)

// Options overrides process-level collaborators, mainly for tests. Zero values build the production ones.
type Options struct {
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	Registry       *prometheus.Registry
	HTTPClient     *http.Client
	FraudSource    domfraud.Source
	Chaos          chaos.Injector
	Clock          clock.Clock
}

// App holds the routers of every role this process serves plus everything that needs closing.
type App struct {
	cfg        config.Config
	opts       Options
	log        observability.Logger
	propagator propagation.TextMapPropagator
	tp         trace.TracerProvider
	registry   *prometheus.Registry
	base       observability.Observability

	stores   *stores
	handlers map[config.Role]http.Handler

	closeOnce sync.Once
	closers   []func(context.Context) error
}

func New(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	zl := opts.Logger
	if zl == nil {
		zl = zap.NewNop()
	}
	a := &App{
		cfg:        cfg,
		opts:       opts,
		log:        zaplogger.New(zl),
		propagator: oteltrace.Propagator(),
		stores:     &stores{cfg: cfg},
		handlers:   make(map[config.Role]http.Handler),
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.tp = opts.TracerProvider
	if a.tp == nil {
		tp, err := oteltrace.NewProvider(ctx, oteltrace.ProviderConfig{
			ServiceName:  cfg.ServiceName,
			Environment:  cfg.Env,
			OTLPEndpoint: cfg.OTLPEndpoint,
		})
		if err != nil {
			return nil, err
		}
		a.tp = tp
		a.closers = append(a.closers, tp.Shutdown)
	}

	a.registry = opts.Registry
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	counters, histograms := prometrics.Standard(prometrics.New(a.registry, "", ""))
	a.base = infraobs.New(nil, a.log, counters, histograms)

	for _, role := range config.Roles {
		if !cfg.Runs(role) {
			continue
		}
		h, err := a.buildRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", role, err)
		}
		a.handlers[role] = h
	}
	return a, nil
}

// telemetry is the Observability handed to one role's components.
func (a *App) telemetry(role config.Role) observability.Observability {
	tracer := oteltrace.New(a.tp, "minishop/"+string(role), oteltrace.RoleKey.String(string(role)))
	return infraobs.ForService(a.base, tracer, string(role))
}

func (a *App) clock() clock.Clock {
	if a.opts.Clock != nil {
		return a.opts.Clock
	}
	return clock.NewSystem()
}

func (a *App) chaos(tel observability.Observability) chaos.Injector {
	if a.opts.Chaos != nil {
		return a.opts.Chaos
	}
	if !a.cfg.ChaosEnabled {
		return chaos.Nop()
	}
	delay := chaos.NewRandomDelay(a.cfg.ChaosMaxDelay, uint64(time.Now().UnixNano()))
	log := tel.Logger().With(observability.F("component", "chaos"))
	delay.OnDelay = func(point string, d time.Duration) {
		log.Info("chaos_delay", observability.F("point", point), observability.F("delay_ms", d.Milliseconds()))
	}
	return delay
}

func (a *App) fraudSource() domfraud.Source {
	if a.opts.FraudSource != nil {
		return a.opts.FraudSource
	}
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1))
}

func (a *App) metricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

// Handler returns the router of role, or nil when this process does not serve it.
func (a *App) Handler(role config.Role) http.Handler {
	return a.handlers[role]
}

// Run serves every built role on its configured address until ctx is done, then shuts down.
func (a *App) Run(ctx context.Context) error {
	system := a.log.With(
		observability.F("trace_id", logging.SystemTraceID),
		observability.F("span_id", logging.SystemSpanID),
	)

	servers := make([]*http.Server, 0, len(a.handlers))
	errCh := make(chan error, len(a.handlers))
	for _, role := range config.Roles {
		h, ok := a.handlers[role]
		if !ok {
			continue
		}
		srv := &http.Server{
			Addr:              a.cfg.Services[role].Addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		}
		servers = append(servers, srv)

		go func(role config.Role) {
			system.Info("http_server_start",
				observability.F("role", string(role)),
				observability.F("addr", srv.Addr),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				system.Error("http_server_error",
					observability.F("role", string(role)),
					observability.F("error", err.Error()),
				)
				errCh <- fmt.Errorf("%s server: %w", role, err)
			}
		}(role)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			system.Error("http_server_shutdown_error",
				observability.F("addr", srv.Addr),
				observability.F("error", err.Error()),
			)
		}
	}
	system.Info("http_server_stopped")

	return errors.Join(runErr, a.Close(shutdownCtx))
}

// Close stops the bus and releases stores and exporters in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	a.closeOnce.Do(func() {
		all := append(append([]func(context.Context) error{}, a.stores.closers...), a.closers...)
		for i := len(all) - 1; i >= 0; i-- {
			if err := all[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
