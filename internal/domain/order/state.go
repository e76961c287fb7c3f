package order

// OrderState implements the state pattern for order lifecycle transitions.
//
//	pending -> inventory_reserved -> completed
//	                              -> payment_failed
//	pending -> inventory_failed
type OrderState interface {
	Status() Status
	OnInventoryReserved(o *Order) (OrderState, error)
	OnInventoryFailed(o *Order, reason string) (OrderState, error)
	OnPaymentSucceeded(o *Order) (OrderState, error)
	OnPaymentFailed(o *Order, reason string) (OrderState, error)
}

func stateFor(s Status) OrderState {
	switch s {
	case StatusInventoryReserved:
		return inventoryReservedState{}
	case StatusInventoryFailed:
		return terminalState{status: StatusInventoryFailed}
	case StatusCompleted:
		return terminalState{status: StatusCompleted}
	case StatusPaymentFailed:
		return terminalState{status: StatusPaymentFailed}
	default:
		return pendingState{}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnInventoryReserved(o *Order) (OrderState, error) {
	o.FailureReason = ""
	return inventoryReservedState{}, nil
}

func (pendingState) OnInventoryFailed(o *Order, reason string) (OrderState, error) {
	o.FailureReason = reason
	return terminalState{status: StatusInventoryFailed}, nil
}

func (pendingState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (pendingState) OnPaymentFailed(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

type inventoryReservedState struct{}

func (inventoryReservedState) Status() Status { return StatusInventoryReserved }

func (inventoryReservedState) OnInventoryReserved(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (inventoryReservedState) OnInventoryFailed(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (inventoryReservedState) OnPaymentSucceeded(o *Order) (OrderState, error) {
	o.FailureReason = ""
	return terminalState{status: StatusCompleted}, nil
}

func (inventoryReservedState) OnPaymentFailed(o *Order, reason string) (OrderState, error) {
	o.FailureReason = reason
	return terminalState{status: StatusPaymentFailed}, nil
}

// terminalState covers completed, inventory_failed and payment_failed: the pipeline never
// retries a stage, so nothing leaves a terminal state.
type terminalState struct{ status Status }

func (s terminalState) Status() Status { return s.status }

func (terminalState) OnInventoryReserved(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (terminalState) OnInventoryFailed(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (terminalState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (terminalState) OnPaymentFailed(*Order, string) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}
