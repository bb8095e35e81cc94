package workflow

// State is a document's coarse approval status. Non-terminal states are named
// for the gate currently awaiting action; the state is always derivable from
// the document's history (see DeriveState).
type State string

const (
	StatePendingValidator State = "PENDING_VALIDATOR"
	StatePendingReviewer1 State = "PENDING_REVIEWER1"
	StatePendingReviewer2 State = "PENDING_REVIEWER2"
	StateApproved         State = "APPROVED"
	StateRejected         State = "REJECTED"
	StateCanceled         State = "CANCELED"
)

var validStates = map[State]bool{
	StatePendingValidator: true,
	StatePendingReviewer1: true,
	StatePendingReviewer2: true,
	StateApproved:         true,
	StateRejected:         true,
	StateCanceled:         true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
	StateCanceled: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// pendingStates maps each gate role to the state in which that gate is open
var pendingStates = map[Role]State{
	RoleValidator: StatePendingValidator,
	RoleReviewer1: StatePendingReviewer1,
	RoleReviewer2: StatePendingReviewer2,
}

// PendingState returns the coarse state in which the given gate awaits action
func PendingState(gate Role) State {
	return pendingStates[gate]
}
