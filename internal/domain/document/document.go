package document

import "time"

// Kind identifies the reimbursement document type
type Kind string

const (
	KindAdvance    Kind = "ADVANCE"
	KindSettlement Kind = "SETTLEMENT"
	KindClaim      Kind = "CLAIM"
)

var validKinds = map[Kind]bool{
	KindAdvance:    true,
	KindSettlement: true,
	KindClaim:      true,
}

// IsValid returns true if the kind is a known document kind
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// UserID is an opaque reference into the external user directory.
// The core never stores denormalized user data.
type UserID string

// Document represents one approval-subject reimbursement record
type Document struct {
	ID           int64     `json:"id"`
	Number       string    `json:"number"`
	Kind         Kind      `json:"kind"`
	Status       string    `json:"status"`
	SubmitterID  UserID    `json:"submitter_id"`
	ValidatorIDs []UserID  `json:"validator_ids,omitempty"`
	Reviewer1IDs []UserID  `json:"reviewer1_ids"`
	Reviewer2IDs []UserID  `json:"reviewer2_ids"`
	SubmittedAt  time.Time `json:"submitted_at"`
	RejectReason string    `json:"reject_reason,omitempty"`
	CancelReason string    `json:"cancel_reason,omitempty"`
	History      History   `json:"history"`
	// Version guards concurrent transitions; bumped by every applied entry
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
