package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStateMachineTransitions(t *testing.T) {
	sm := NewPaymentStateMachine()

	assert.True(t, sm.CanTransition("PENDING", "CONFIRMED"))
	assert.True(t, sm.CanTransition("PENDING", "FAILED"))
	assert.True(t, sm.CanTransition("PENDING", "TIMED_OUT"))

	// a client-side timeout can still resolve on the backend
	assert.True(t, sm.CanTransition("TIMED_OUT", "CONFIRMED"))
	assert.True(t, sm.CanTransition("TIMED_OUT", "FAILED"))

	// terminal statuses never move
	assert.False(t, sm.CanTransition("CONFIRMED", "FAILED"))
	assert.False(t, sm.CanTransition("CONFIRMED", "PENDING"))
	assert.False(t, sm.CanTransition("FAILED", "CONFIRMED"))

	// unknown origin
	assert.False(t, sm.CanTransition("REFUNDED", "CONFIRMED"))
}

func TestGetAllowedTransitions(t *testing.T) {
	sm := NewStateMachine(map[string][]string{
		"DRAFT": {"PUBLISHED"},
	})

	assert.Equal(t, []string{"PUBLISHED"}, sm.GetAllowedTransitions("DRAFT"))
	assert.Empty(t, sm.GetAllowedTransitions("PUBLISHED"))
}
