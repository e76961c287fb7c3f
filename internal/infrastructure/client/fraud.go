package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domfraud "github.com/Zhima-Mochi/minishop-tracing/internal/domain/fraud"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"
)

const (
	EndpointFraudCheck = "/fraud/check"

	DefaultFraudAttempts = 3
	defaultBackoff       = 50 * time.Millisecond
)

// FraudClient calls the fraud evaluator. The check has no side effects, so transport failures are
// retried with exponential backoff; status-code answers are never retried.
type FraudClient struct {
	base
	attempts int
	backoff  time.Duration
}

func NewFraudClient(opts Options, attempts int, tel observability.Observability) *FraudClient {
	if attempts <= 0 {
		attempts = DefaultFraudAttempts
	}
	return &FraudClient{base: newBase("fraud-service", opts, tel), attempts: attempts, backoff: defaultBackoff}
}

func (c *FraudClient) Check(ctx context.Context, req domfraud.Request) (domfraud.Verdict, error) {
	body := paymentBody{
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	}

	var (
		resp response
		err  error
	)
	wait := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		actx, cancel := c.attemptContext(ctx, c.attempts-attempt+1)
		resp, err = c.postJSON(actx, EndpointFraudCheck, body)
		cancel()
		if err == nil || !errors.Is(err, failure.ErrUnreachable) || attempt == c.attempts {
			break
		}
		logctx.FromOr(ctx, c.log).Warn("fraud_check_retry",
			observability.F("attempt", attempt),
			observability.F("backoff_ms", wait.Milliseconds()),
			observability.F("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return domfraud.Verdict{}, fmt.Errorf("%w: %v", failure.ErrUnreachable, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	if err != nil {
		return domfraud.Verdict{}, err
	}
	if resp.Status != http.StatusOK {
		return domfraud.Verdict{}, fmt.Errorf("fraud: status %d", resp.Status)
	}

	var sb statusBody
	if err := json.Unmarshal(resp.Body, &sb); err != nil {
		return domfraud.Verdict{}, fmt.Errorf("fraud: decode verdict: %w", err)
	}
	return domfraud.Verdict{Fraudulent: sb.Status != domfraud.StatusLegitimate}, nil
}

// attemptContext splits what is left of the caller's deadline across the remaining attempts, so a
// timed-out attempt still leaves room for a retry.
func (c *FraudClient) attemptContext(ctx context.Context, left int) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return ctx, func() {}
	}
	share := time.Until(deadline) / time.Duration(left)
	if share >= c.timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, share)
}
