package workflow

import (
	"fmt"
	"time"

	"github.com/garyjia/reimbursement-approval/internal/domain/document"
)

// Transition is the computed outcome of a legal action: the entry to append
// and the state the document moves to. Planning is pure; applying the
// transition (persisting entry + status atomically) is the engine's job.
type Transition struct {
	From  State
	To    State
	Label Label
	Entry document.HistoryEntry
}

// PlanSubmit computes the initial transition for a document entering the workflow
func PlanSubmit(doc *document.Document, now time.Time) (Transition, error) {
	if err := ValidateAssignments(doc); err != nil {
		return Transition{}, err
	}
	label := SubmitLabel()
	return Transition{
		From:  "",
		To:    InitialState(doc.Kind),
		Label: label,
		Entry: document.HistoryEntry{
			Label:     label.String(),
			Actor:     doc.SubmitterID,
			Timestamp: now,
		},
	}, nil
}

// PlanApprove computes the transition for an approve action. The actor must
// hold the pending gate's role, or be a privileged substitute, in which case
// the entry is labeled as approved-by-substitute for that gate. A role holder
// who also holds the immediately following gate role(s) clears the whole
// consecutive run in one entry; a substitute clears exactly one gate per
// action.
func PlanApprove(doc *document.Document, actor document.UserID, substitute bool, now time.Time) (Transition, error) {
	state := State(doc.Status)
	if state.IsTerminal() {
		return Transition{}, fmt.Errorf("%w: document %s is %s", ErrAlreadyTerminal, doc.Number, state)
	}

	roles, err := ResolveRoles(doc, actor)
	if err != nil {
		return Transition{}, err
	}

	gate, open := NextOpenGate(doc.Kind, doc.History)
	if !open {
		return Transition{}, fmt.Errorf("%w: no open gate on document %s", ErrInvalidTransition, doc.Number)
	}

	var label Label
	switch {
	case HoldsRole(roles, gate):
		cleared := consecutiveRun(doc.Kind, gate, roles)
		label = ApproveLabel(cleared, false)
	case substitute:
		label = ApproveLabel([]Role{gate}, true)
	default:
		return Transition{}, fmt.Errorf("%w: user %s holds no role for the open %s gate on document %s",
			ErrInvalidTransition, actor, gate, doc.Number)
	}

	entry := document.HistoryEntry{Label: label.String(), Actor: actor, Timestamp: now}
	return Transition{
		From:  state,
		To:    DeriveState(doc.Kind, doc.History.Append(entry)),
		Label: label,
		Entry: entry,
	}, nil
}

// PlanReject computes the transition for a reject action. Rejection is legal
// from any non-terminal state and always carries a reason. The label is
// attributed to a gate by the first-unsatisfied-gate rule: a substitute
// rejects on behalf of the first open gate; a role holder rejects in their
// own capacity, preferring the first of their roles still open.
func PlanReject(doc *document.Document, actor document.UserID, substitute bool, reason string, now time.Time) (Transition, error) {
	state := State(doc.Status)
	if state.IsTerminal() {
		return Transition{}, fmt.Errorf("%w: document %s is %s", ErrAlreadyTerminal, doc.Number, state)
	}
	if reason == "" {
		return Transition{}, fmt.Errorf("%w: rejecting document %s", ErrRejectReasonRequired, doc.Number)
	}

	roles, err := ResolveRoles(doc, actor)
	if err != nil {
		return Transition{}, err
	}

	var label Label
	switch {
	case len(roles) > 0:
		label = RejectLabel(rejectingGate(doc, roles), false)
	case substitute:
		gate, open := NextOpenGate(doc.Kind, doc.History)
		if !open {
			return Transition{}, fmt.Errorf("%w: no open gate on document %s", ErrInvalidTransition, doc.Number)
		}
		label = RejectLabel(gate, true)
	default:
		return Transition{}, fmt.Errorf("%w: user %s holds no role on document %s",
			ErrInvalidTransition, actor, doc.Number)
	}

	entry := document.HistoryEntry{Label: label.String(), Actor: actor, Timestamp: now}
	return Transition{From: state, To: StateRejected, Label: label, Entry: entry}, nil
}

// PlanCancel records a submitter-driven cancellation as a terminal entry.
// Eligibility is owned by the external authorization layer; the engine only
// refuses cancellation of an already finished document.
func PlanCancel(doc *document.Document, actor document.UserID, now time.Time) (Transition, error) {
	state := State(doc.Status)
	if state.IsTerminal() {
		return Transition{}, fmt.Errorf("%w: document %s is %s", ErrAlreadyTerminal, doc.Number, state)
	}
	label := CancelLabel()
	entry := document.HistoryEntry{Label: label.String(), Actor: actor, Timestamp: now}
	return Transition{From: state, To: StateCanceled, Label: label, Entry: entry}, nil
}

// consecutiveRun returns the run of gates starting at gate that the role set
// covers without a break, in kind order
func consecutiveRun(kind document.Kind, gate Role, roles []Role) []Role {
	gates := Gates(kind)
	start := 0
	for i, g := range gates {
		if g == gate {
			start = i
			break
		}
	}

	var run []Role
	for _, g := range gates[start:] {
		if !HoldsRole(roles, g) {
			break
		}
		run = append(run, g)
	}
	return run
}

// rejectingGate picks the gate a role-holding rejection is attributed to:
// the first of the actor's roles, in gate order, that is still open, falling
// back to their first role when all their gates are already cleared
func rejectingGate(doc *document.Document, roles []Role) Role {
	for _, r := range roles {
		if _, _, cleared := GateClearance(doc.History, r); !cleared {
			return r
		}
	}
	return roles[0]
}
