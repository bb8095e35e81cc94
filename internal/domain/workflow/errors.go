package workflow

import "errors"

var (
	// ErrInvalidDocument is returned when a document is missing the role
	// assignments its kind requires
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidTransition is returned when an action is attempted out of
	// gate order or by an actor holding no matching role
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrAlreadyTerminal is returned when an action targets a document that
	// has already reached a terminal state
	ErrAlreadyTerminal = errors.New("document already in terminal state")

	// ErrConcurrentModification is returned when a transition loses a race
	// against another transition on the same document
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrRejectReasonRequired is returned when a reject action carries no reason
	ErrRejectReasonRequired = errors.New("reject reason required")
)
