package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/reimbursement-approval/internal/application/port"
	"github.com/garyjia/reimbursement-approval/internal/domain/document"
	"github.com/garyjia/reimbursement-approval/internal/domain/workflow"
)

// ErrNotFound is returned when the referenced document does not exist
var ErrNotFound = errors.New("document not found")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Result carries the document after a successful transition together with
// the transition itself, for downstream notification planning
type Result struct {
	Document   *document.Document
	Transition workflow.Transition
}

// Engine applies approval workflow transitions. Every successful call
// appends exactly one history entry and moves the stored status in the same
// atomic write; a concurrent transition on the same document surfaces
// workflow.ErrConcurrentModification and leaves no trace.
type Engine interface {
	Submit(ctx context.Context, doc *document.Document) (*Result, error)
	Approve(ctx context.Context, docID int64, actor document.UserID) (*Result, error)
	Reject(ctx context.Context, docID int64, actor document.UserID, reason string) (*Result, error)
	Cancel(ctx context.Context, docID int64, actor document.UserID, reason string) (*Result, error)
}

type engineImpl struct {
	store     port.DocumentStore
	directory port.UserDirectory
	logger    Logger
	now       func() time.Time
}

// Option configures the engine
type Option func(*engineImpl)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(e *engineImpl) {
		e.now = now
	}
}

// New creates a new workflow engine
func New(store port.DocumentStore, directory port.UserDirectory, logger Logger, opts ...Option) Engine {
	e := &engineImpl{
		store:     store,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit validates role assignments, assigns a display number, and persists
// the document in its kind's initial state with the submission entry
func (e *engineImpl) Submit(ctx context.Context, doc *document.Document) (*Result, error) {
	now := e.now()

	t, err := workflow.PlanSubmit(doc, now)
	if err != nil {
		return nil, err
	}

	if doc.Number == "" {
		doc.Number = newDocumentNumber(doc.Kind, now)
	}
	doc.Status = t.To.String()
	doc.SubmittedAt = now
	doc.History = document.History{t.Entry}
	doc.Version = 1

	if err := e.store.Create(ctx, doc); err != nil {
		e.logger.Error("Failed to create document", "error", err, "number", doc.Number)
		return nil, fmt.Errorf("create document: %w", err)
	}

	e.logger.Info("Document submitted",
		"id", doc.ID,
		"number", doc.Number,
		"kind", doc.Kind,
		"status", doc.Status)

	return &Result{Document: doc, Transition: t}, nil
}

// Approve applies an approve action by the acting user
func (e *engineImpl) Approve(ctx context.Context, docID int64, actor document.UserID) (*Result, error) {
	return e.transition(ctx, docID, func(doc *document.Document, substitute bool) (workflow.Transition, error) {
		return workflow.PlanApprove(doc, actor, substitute, e.now())
	}, actor)
}

// Reject applies a reject action; the reason is recorded on the document
func (e *engineImpl) Reject(ctx context.Context, docID int64, actor document.UserID, reason string) (*Result, error) {
	return e.transition(ctx, docID, func(doc *document.Document, substitute bool) (workflow.Transition, error) {
		t, err := workflow.PlanReject(doc, actor, substitute, reason, e.now())
		if err != nil {
			return workflow.Transition{}, err
		}
		doc.RejectReason = reason
		return t, nil
	}, actor)
}

// Cancel records a submitter-driven cancellation as a terminal entry
func (e *engineImpl) Cancel(ctx context.Context, docID int64, actor document.UserID, reason string) (*Result, error) {
	return e.transition(ctx, docID, func(doc *document.Document, _ bool) (workflow.Transition, error) {
		t, err := workflow.PlanCancel(doc, actor, e.now())
		if err != nil {
			return workflow.Transition{}, err
		}
		doc.CancelReason = reason
		return t, nil
	}, actor)
}

// transition runs the shared read-plan-swap cycle. The substitute flag comes
// from the directory lookup; the loser of a version race gets
// workflow.ErrConcurrentModification and may retry by re-reading.
func (e *engineImpl) transition(
	ctx context.Context,
	docID int64,
	plan func(doc *document.Document, substitute bool) (workflow.Transition, error),
	actor document.UserID,
) (*Result, error) {
	doc, err := e.store.GetByID(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("read document %d: %w", docID, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, docID)
	}

	substitute := e.isPrivilegedSubstitute(ctx, actor)

	t, err := plan(doc, substitute)
	if err != nil {
		return nil, err
	}

	err = e.store.CompareAndSwap(ctx, doc.ID, doc.Version, t.To.String(), t.Entry, doc.RejectReason, doc.CancelReason)
	if errors.Is(err, port.ErrVersionConflict) {
		e.logger.Info("Transition lost version race", "id", doc.ID, "version", doc.Version)
		return nil, fmt.Errorf("%w: document %d", workflow.ErrConcurrentModification, doc.ID)
	}
	if err != nil {
		e.logger.Error("Failed to apply transition", "error", err, "id", doc.ID, "label", t.Entry.Label)
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	doc.Status = t.To.String()
	doc.History = doc.History.Append(t.Entry)
	doc.Version++

	e.logger.Info("Transition applied",
		"id", doc.ID,
		"number", doc.Number,
		"label", t.Entry.Label,
		"from", t.From,
		"to", t.To,
		"actor", actor)

	return &Result{Document: doc, Transition: t}, nil
}

// isPrivilegedSubstitute asks the directory whether the actor may stand in
// for any open gate. Lookup failures degrade to false; role-holder actions
// do not depend on the directory being reachable.
func (e *engineImpl) isPrivilegedSubstitute(ctx context.Context, actor document.UserID) bool {
	profile, err := e.directory.Lookup(ctx, actor)
	if err != nil {
		if !errors.Is(err, port.ErrUserNotFound) {
			e.logger.Error("Directory lookup failed", "error", err, "user", actor)
		}
		return false
	}
	return profile.IsPrivilegedSubstitute
}

var numberPrefixes = map[document.Kind]string{
	document.KindAdvance:    "ADV",
	document.KindSettlement: "STL",
	document.KindClaim:      "CLM",
}

func newDocumentNumber(kind document.Kind, now time.Time) string {
	short := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%s-%s", numberPrefixes[kind], now.Format("20060102"), strings.ToUpper(short))
}
