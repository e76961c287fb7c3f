package payment

// Outcome is the result of an authorization attempt as seen by the orchestrator.
type Outcome string

const (
	OutcomeAuthorized        Outcome = "authorized"
	OutcomeDeclined          Outcome = "declined"
	OutcomeInvalid           Outcome = "invalid"
	OutcomeDownstreamFailure Outcome = "downstream_failure"
)

const (
	MessageAuthorized       = "Payment authorized"
	MessageInvalid          = "Invalid payment details"
	MessageFraudDeclined    = "Payment declined: transaction flagged as fraudulent"
	MessageFraudUnreachable = "Error contacting fraud service"
)

// Reply is the structured answer of the payment service. Category is copied verbatim
// into the order result when the authorization fails.
type Reply struct {
	Outcome  Outcome
	Message  string
	Category string
}
