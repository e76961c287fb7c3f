package inventory

import "errors"

// ErrStockCommitted marks a failed check-and-reserve whose local decrement already happened.
var ErrStockCommitted = errors.New("inventory: stock committed")

// Outcome is the result of a check-and-reserve as seen by the orchestrator.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeInsufficient      Outcome = "insufficient"
	OutcomeDownstreamFailure Outcome = "downstream_failure"
	OutcomeStoreFailure      Outcome = "store_failure"
)

const (
	MessageReserved             = "Inventory available and reserved"
	MessageInsufficient         = "Insufficient inventory"
	MessageWarehouseFailed      = "Warehouse reservation failed"
	MessageWarehouseUnreachable = "Error contacting warehouse service"
)

// Reply is the structured answer of the inventory service.
type Reply struct {
	Outcome Outcome
	Message string
}

// StockCommitted reports whether the local decrement happened before the reply was produced.
// A downstream failure is raised after the decrement and is not compensated.
func (r Reply) StockCommitted() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeDownstreamFailure
}
