package workflow

import (
	"fmt"
	"strings"
)

// Action is the coarse category of a transition label
type Action string

const (
	ActionSubmit  Action = "SUBMITTED"
	ActionApprove Action = "APPROVED"
	ActionReject  Action = "REJECTED"
	ActionCancel  Action = "CANCELED"
)

// Label is the typed form of a history entry's transition label. It encodes
// which gate(s) were exercised and whether the assigned holder or a
// privileged substitute acted. The string form is what gets persisted;
// parsing is exact, never a substring match.
type Label struct {
	Action     Action
	Gates      []Role
	Substitute bool
}

// SubmitLabel returns the label recorded when a document enters the workflow
func SubmitLabel() Label {
	return Label{Action: ActionSubmit}
}

// ApproveLabel returns the label for clearing the given gates in one action.
// More than one gate means the actor held consecutive gate roles and a single
// approval cleared the run.
func ApproveLabel(gates []Role, substitute bool) Label {
	return Label{Action: ActionApprove, Gates: gates, Substitute: substitute}
}

// RejectLabel returns the label for a rejection attributed to the given gate
func RejectLabel(gate Role, substitute bool) Label {
	return Label{Action: ActionReject, Gates: []Role{gate}, Substitute: substitute}
}

// CancelLabel returns the label recorded for a submitter-driven cancellation
func CancelLabel() Label {
	return Label{Action: ActionCancel}
}

// Clears reports whether the label clears the given gate
func (l Label) Clears(gate Role) bool {
	for _, g := range l.Gates {
		if g == gate {
			return true
		}
	}
	return false
}

// String renders the persisted form, e.g. APPROVED_BY_REVIEWER1,
// APPROVED_BY_VALIDATOR_AND_REVIEWER1, REJECTED_BY_SUBSTITUTE_FOR_VALIDATOR
func (l Label) String() string {
	if len(l.Gates) == 0 {
		return string(l.Action)
	}
	names := make([]string, len(l.Gates))
	for i, g := range l.Gates {
		names[i] = string(g)
	}
	joined := strings.Join(names, "_AND_")
	if l.Substitute {
		return fmt.Sprintf("%s_BY_SUBSTITUTE_FOR_%s", l.Action, joined)
	}
	return fmt.Sprintf("%s_BY_%s", l.Action, joined)
}

var roleNames = map[string]Role{
	string(RoleValidator): RoleValidator,
	string(RoleReviewer1): RoleReviewer1,
	string(RoleReviewer2): RoleReviewer2,
}

// ParseLabel parses the persisted string form back into a Label
func ParseLabel(s string) (Label, error) {
	switch s {
	case string(ActionSubmit):
		return SubmitLabel(), nil
	case string(ActionCancel):
		return CancelLabel(), nil
	}

	action, rest, ok := splitAction(s)
	if !ok {
		return Label{}, fmt.Errorf("unrecognized transition label %q", s)
	}

	substitute := false
	if after, found := strings.CutPrefix(rest, "SUBSTITUTE_FOR_"); found {
		substitute = true
		rest = after
	}

	var gates []Role
	for _, name := range strings.Split(rest, "_AND_") {
		role, known := roleNames[name]
		if !known {
			return Label{}, fmt.Errorf("unrecognized role %q in transition label %q", name, s)
		}
		gates = append(gates, role)
	}

	return Label{Action: action, Gates: gates, Substitute: substitute}, nil
}

func splitAction(s string) (Action, string, bool) {
	for _, action := range []Action{ActionApprove, ActionReject} {
		prefix := string(action) + "_BY_"
		if rest, found := strings.CutPrefix(s, prefix); found {
			return action, rest, true
		}
	}
	return "", "", false
}
