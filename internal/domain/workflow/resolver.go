package workflow

import "github.com/garyjia/reimbursement-approval/internal/domain/document"

// ResolveRoles determines which gate roles the user holds on the document,
// in gate order. Holding several roles at once is a normal case: it is what
// lets one approval clear consecutive gates. The privileged-substitute
// capability is orthogonal and travels as an explicit flag supplied by the
// external authorization layer; it is never inferred here.
func ResolveRoles(doc *document.Document, userID document.UserID) ([]Role, error) {
	if err := ValidateAssignments(doc); err != nil {
		return nil, err
	}

	var roles []Role
	for _, gate := range Gates(doc.Kind) {
		if containsUser(GateHolders(doc, gate), userID) {
			roles = append(roles, gate)
		}
	}
	return roles, nil
}

// HoldsRole reports whether the resolved role set includes the gate
func HoldsRole(roles []Role, gate Role) bool {
	for _, r := range roles {
		if r == gate {
			return true
		}
	}
	return false
}

func containsUser(ids []document.UserID, userID document.UserID) bool {
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}
