// Package client holds the outbound HTTP adapters for every hop of the pipeline. Each call opens a
// client span, injects the W3C trace context into the request headers and is bounded by a timeout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient defaults to a client with no overall timeout; the per-call Timeout applies instead.
	HTTPClient *http.Client
	Propagator propagation.TextMapPropagator
}

// base is shared by the typed clients: one peer, one base URL.
type base struct {
	peer       string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	propagator propagation.TextMapPropagator

	tracer       observability.Tracer
	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func newBase(peer string, opts Options, tel observability.Observability) base {
	if tel == nil {
		tel = observability.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Propagator == nil {
		opts.Propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}
	return base{
		peer:         peer,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		timeout:      opts.Timeout,
		httpClient:   opts.HTTPClient,
		propagator:   opts.Propagator,
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("component", "http_client"), observability.F("peer", peer)),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

// response is what came back from the peer. A non-nil error from post means no response at all.
type response struct {
	Status int
	Body   []byte
}

// postJSON marshals body and posts it to endpoint.
func (b *base) postJSON(ctx context.Context, endpoint string, body any) (response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return response{}, fmt.Errorf("%s: encode request: %w", b.peer, err)
	}
	return b.post(ctx, endpoint, raw)
}

// post sends raw to endpoint. Transport failures and timeouts wrap failure.ErrUnreachable.
func (b *base) post(ctx context.Context, endpoint string, raw []byte) (_ response, err error) {
	url := b.baseURL + endpoint
	ctx, span := b.tracer.StartKind(ctx, "HTTP POST "+endpoint, trace.SpanKindClient,
		attribute.String("peer.service", b.peer),
		attribute.String("http.method", http.MethodPost),
		attribute.String("http.url", url),
	)
	start := time.Now()
	outcome := "success"
	var resp response

	defer func() {
		lat := time.Since(start).Seconds()
		span.SetAttributes(attribute.Float64("http.response_time", lat))
		switch {
		case err != nil:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "TRANSPORT_FAILED")
		case resp.Status >= 500:
			outcome = "server_error"
			span.SetStatus(codes.Error, http.StatusText(resp.Status))
		case resp.Status >= 400:
			outcome = "client_error"
		}
		span.End()

		b.extCounter.Add(1,
			observability.L("peer", b.peer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		b.extHistogram.Observe(lat,
			observability.L("peer", b.peer),
			observability.L("endpoint", endpoint),
		)
	}()

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return resp, fmt.Errorf("%s: build request: %w", b.peer, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if rid := logctx.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}
	b.propagator.Inject(callCtx, propagation.HeaderCarrier(req.Header))

	httpResp, err := b.httpClient.Do(req)
	if err != nil {
		logctx.FromOr(ctx, b.log).Warn("downstream_unreachable",
			observability.F("peer", b.peer),
			observability.F("endpoint", endpoint),
			observability.F("error", err.Error()),
		)
		return resp, fmt.Errorf("%w: %s %s: %v", failure.ErrUnreachable, b.peer, endpoint, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return resp, fmt.Errorf("%w: %s %s: read body: %v", failure.ErrUnreachable, b.peer, endpoint, err)
	}
	resp = response{Status: httpResp.StatusCode, Body: body}
	span.SetAttributes(attribute.Int("http.status_code", resp.Status))
	return resp, nil
}

// statusBody is the {status, message, category} envelope every service answers with.
type statusBody struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
}

// rejection turns a non-200 answer into a *failure.Error, taking message and category from the
// body when present. 5xx defaults to downstream, 4xx to fallback.
func rejection(resp response, fallback failure.Category) *failure.Error {
	var sb statusBody
	_ = json.Unmarshal(resp.Body, &sb)

	category := failure.Category(sb.Category)
	if category == "" {
		category = fallback
		if resp.Status >= 500 {
			category = failure.Downstream
		}
	}
	msg := sb.Message
	if msg == "" {
		msg = http.StatusText(resp.Status)
	}
	return failure.Wrap(category, msg, fmt.Errorf("status %d", resp.Status))
}
