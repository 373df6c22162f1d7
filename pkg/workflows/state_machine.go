package workflows

// StateMachine enforces status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a state machine from an allowed-transition table
func NewStateMachine(allowed map[string][]string) *StateMachine {
	return &StateMachine{allowedTransitions: allowed}
}

// NewPaymentStateMachine enforces payment status transitions. A payment
// that timed out client-side may still resolve on the backend, so
// TIMED_OUT is observable back into a terminal backend status.
func NewPaymentStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"PENDING":   {"CONFIRMED", "FAILED", "TIMED_OUT"},
			"TIMED_OUT": {"CONFIRMED", "FAILED"},
			"CONFIRMED": {},
			"FAILED":    {},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
