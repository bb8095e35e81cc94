package port

import (
	"context"
	"errors"

	"github.com/garyjia/reimbursement-approval/internal/domain/document"
)

// ErrUserNotFound is returned by the directory for an unknown user ID
var ErrUserNotFound = errors.New("user not found in directory")

// UserProfile is the directory's view of a user. IsPrivilegedSubstitute
// marks actors authorized to clear any open gate in place of its holder.
type UserProfile struct {
	ID                     document.UserID
	Name                   string
	Email                  string
	IsPrivilegedSubstitute bool
}

// UserDirectory resolves opaque user IDs to profile data. Ownership of
// identity data stays external; the core only carries IDs.
type UserDirectory interface {
	Lookup(ctx context.Context, id document.UserID) (*UserProfile, error)
}

// Message is one rendered notification handed to the transport
type Message struct {
	Recipients []UserProfile
	Subject    string
	Body       string
	DocumentID int64
	Number     string
}

// Notifier delivers notification messages. Delivery failure is logged by the
// caller and never affects a transition that already succeeded; an empty
// recipient list must be a no-op.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
