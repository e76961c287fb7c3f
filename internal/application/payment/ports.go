package payment

import (
	"context"

	domfraud "github.com/Zhima-Mochi/minishop-tracing/internal/domain/fraud"
)

// FraudPort asks the fraud evaluator for a verdict. Transport failures wrap failure.ErrUnreachable;
// any other error means the evaluator answered with a non-success status.
type FraudPort interface {
	Check(ctx context.Context, req domfraud.Request) (domfraud.Verdict, error)
}
