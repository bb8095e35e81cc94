package workflow

import "testing"

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePendingValidator, false},
		{StatePendingReviewer1, false},
		{StatePendingReviewer2, false},
		{StateApproved, true},
		{StateRejected, true},
		{StateCanceled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending state", StatePendingValidator, true},
		{"terminal state", StateCanceled, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPendingState(t *testing.T) {
	if got := PendingState(RoleValidator); got != StatePendingValidator {
		t.Errorf("PendingState(Validator) = %v", got)
	}
	if got := PendingState(RoleReviewer2); got != StatePendingReviewer2 {
		t.Errorf("PendingState(Reviewer2) = %v", got)
	}
}
