package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/reimbursement-approval/internal/domain/document"
)

// ErrVersionConflict is returned by CompareAndSwap when the stored version no
// longer matches the expected one; the engine maps it to
// workflow.ErrConcurrentModification.
var ErrVersionConflict = errors.New("document version conflict")

// DocumentStore defines persistence operations for Document. A read returns
// a consistent snapshot of the document including its full history; writes go
// through CompareAndSwap so that at most one concurrent transition per
// document can succeed.
type DocumentStore interface {
	// Create persists a freshly submitted document with its initial history entry
	Create(ctx context.Context, doc *document.Document) error

	// GetByID retrieves a document with its history; (nil, nil) when absent
	GetByID(ctx context.Context, id int64) (*document.Document, error)

	// GetByNumber retrieves a document by display number; (nil, nil) when absent
	GetByNumber(ctx context.Context, number string) (*document.Document, error)

	// CompareAndSwap atomically updates status (plus optional reject/cancel
	// reason) and appends the history entry, guarded on expectedVersion.
	// Returns ErrVersionConflict if another transition won the race.
	CompareAndSwap(ctx context.Context, id int64, expectedVersion int64, newStatus string, entry document.HistoryEntry, rejectReason, cancelReason string) error

	// List returns documents filtered by status ("" for all), newest first
	List(ctx context.Context, status string, limit, offset int) ([]*document.Document, error)

	// ListStale returns non-terminal documents submitted before the cutoff,
	// each with a consistent history snapshot
	ListStale(ctx context.Context, cutoff time.Time) ([]*document.Document, error)
}
