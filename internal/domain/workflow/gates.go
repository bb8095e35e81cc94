package workflow

import (
	"fmt"

	"github.com/garyjia/reimbursement-approval/internal/domain/document"
)

// Role is one approval gate in a document kind's required sequence
type Role string

const (
	RoleValidator Role = "VALIDATOR"
	RoleReviewer1 Role = "REVIEWER1"
	RoleReviewer2 Role = "REVIEWER2"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// gateTable is the single source of truth for gate order per document kind.
// Advance has no validator gate; Settlement and Claim share the full sequence.
var gateTable = map[document.Kind][]Role{
	document.KindAdvance:    {RoleReviewer1, RoleReviewer2},
	document.KindSettlement: {RoleValidator, RoleReviewer1, RoleReviewer2},
	document.KindClaim:      {RoleValidator, RoleReviewer1, RoleReviewer2},
}

// Gates returns the ordered gate sequence for the document kind
func Gates(kind document.Kind) []Role {
	return gateTable[kind]
}

// InitialState returns the state a freshly submitted document of the kind starts in
func InitialState(kind document.Kind) State {
	gates := gateTable[kind]
	return PendingState(gates[0])
}

// ValidateAssignments verifies that every gate of the document's kind has at
// least one assigned holder. Documents failing this are rejected before any
// transition is attempted.
func ValidateAssignments(doc *document.Document) error {
	if !doc.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDocument, doc.Kind)
	}
	if doc.SubmitterID == "" {
		return fmt.Errorf("%w: missing submitter", ErrInvalidDocument)
	}
	for _, gate := range gateTable[doc.Kind] {
		if len(GateHolders(doc, gate)) == 0 {
			return fmt.Errorf("%w: %s document has no %s assigned", ErrInvalidDocument, doc.Kind, gate)
		}
	}
	return nil
}

// GateHolders returns the assigned holders of a gate on the document
func GateHolders(doc *document.Document, gate Role) []document.UserID {
	switch gate {
	case RoleValidator:
		return doc.ValidatorIDs
	case RoleReviewer1:
		return doc.Reviewer1IDs
	case RoleReviewer2:
		return doc.Reviewer2IDs
	}
	return nil
}

// GateClearance returns the history entry that cleared the gate, with its
// parsed label, or ok=false if the gate is still open. A gate is cleared by
// any approval label that names it, whether exercised by the assigned holder,
// a substitute, or as part of a combined multi-role approval.
func GateClearance(history document.History, gate Role) (document.HistoryEntry, Label, bool) {
	entry, found := history.First(func(e document.HistoryEntry) bool {
		label, err := ParseLabel(e.Label)
		return err == nil && label.Action == ActionApprove && label.Clears(gate)
	})
	if !found {
		return document.HistoryEntry{}, Label{}, false
	}
	label, _ := ParseLabel(entry.Label)
	return entry, label, true
}

// NextOpenGate returns the first gate in kind order that history has not yet
// cleared, or ok=false when every gate is satisfied
func NextOpenGate(kind document.Kind, history document.History) (Role, bool) {
	for _, gate := range gateTable[kind] {
		if _, _, cleared := GateClearance(history, gate); !cleared {
			return gate, true
		}
	}
	return "", false
}

// DeriveState computes the coarse state as a pure function of history and
// kind. The engine keeps the stored status and this derivation in lockstep;
// the round-trip law is asserted in tests.
func DeriveState(kind document.Kind, history document.History) State {
	if _, found := history.Last(func(e document.HistoryEntry) bool {
		label, err := ParseLabel(e.Label)
		return err == nil && label.Action == ActionReject
	}); found {
		return StateRejected
	}
	if _, found := history.Last(func(e document.HistoryEntry) bool {
		label, err := ParseLabel(e.Label)
		return err == nil && label.Action == ActionCancel
	}); found {
		return StateCanceled
	}
	if gate, open := NextOpenGate(kind, history); open {
		return PendingState(gate)
	}
	return StateApproved
}
