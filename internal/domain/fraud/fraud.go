package fraud

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	DefaultFraudWeight = 5
	DefaultLegitWeight = 95

	StatusFraudulent = "fraudulent"
	StatusLegitimate = "legitimate"
)

var ErrInvalidWeights = errors.New("fraud: weights must be non-negative and not both zero")

// Weights are the relative odds of a fraudulent vs a legitimate verdict.
type Weights struct {
	Fraud int
	Legit int
}

func (w Weights) Validate() error {
	if w.Fraud < 0 || w.Legit < 0 || w.Fraud+w.Legit == 0 {
		return ErrInvalidWeights
	}
	return nil
}

// Source yields uniform integers in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Decide picks one token out of Fraud fraud tokens and Legit legitimate tokens, uniformly.
// Fraud=0 never flags; Legit=0 always flags.
func Decide(w Weights, src Source) bool {
	total := w.Fraud + w.Legit
	return src.IntN(total) < w.Fraud
}

// Request is what the payment service submits for evaluation.
type Request struct {
	OrderID       string
	UserID        string
	PaymentMethod string
	Amount        decimal.Decimal
}

type Verdict struct {
	Fraudulent bool
}

func (v Verdict) Status() string {
	if v.Fraudulent {
		return StatusFraudulent
	}
	return StatusLegitimate
}

func (v Verdict) Message() string {
	if v.Fraudulent {
		return "Transaction is fraudulent"
	}
	return "Transaction is legitimate"
}
