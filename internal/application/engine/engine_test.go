package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/reimbursement-approval/internal/application/port"
	"github.com/garyjia/reimbursement-approval/internal/domain/document"
	"github.com/garyjia/reimbursement-approval/internal/domain/workflow"
)

var testTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type mockStore struct {
	createFunc         func(ctx context.Context, doc *document.Document) error
	getByIDFunc        func(ctx context.Context, id int64) (*document.Document, error)
	getByNumberFunc    func(ctx context.Context, number string) (*document.Document, error)
	compareAndSwapFunc func(ctx context.Context, id, expectedVersion int64, newStatus string, entry document.HistoryEntry, rejectReason, cancelReason string) error
	listFunc           func(ctx context.Context, status string, limit, offset int) ([]*document.Document, error)
	listStaleFunc      func(ctx context.Context, cutoff time.Time) ([]*document.Document, error)
}

func (m *mockStore) Create(ctx context.Context, doc *document.Document) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, doc)
	}
	return nil
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*document.Document, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockStore) GetByNumber(ctx context.Context, number string) (*document.Document, error) {
	if m.getByNumberFunc != nil {
		return m.getByNumberFunc(ctx, number)
	}
	return nil, nil
}

func (m *mockStore) CompareAndSwap(ctx context.Context, id, expectedVersion int64, newStatus string, entry document.HistoryEntry, rejectReason, cancelReason string) error {
	if m.compareAndSwapFunc != nil {
		return m.compareAndSwapFunc(ctx, id, expectedVersion, newStatus, entry, rejectReason, cancelReason)
	}
	return nil
}

func (m *mockStore) List(ctx context.Context, status string, limit, offset int) ([]*document.Document, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, status, limit, offset)
	}
	return nil, nil
}

func (m *mockStore) ListStale(ctx context.Context, cutoff time.Time) ([]*document.Document, error) {
	if m.listStaleFunc != nil {
		return m.listStaleFunc(ctx, cutoff)
	}
	return nil, nil
}

type mockDirectory struct {
	lookupFunc func(ctx context.Context, id document.UserID) (*port.UserProfile, error)
}

func (m *mockDirectory) Lookup(ctx context.Context, id document.UserID) (*port.UserProfile, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, id)
	}
	return nil, port.ErrUserNotFound
}

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newEngine(store *mockStore, dir *mockDirectory) Engine {
	return New(store, dir, noopLogger{}, WithClock(func() time.Time { return testTime }))
}

func pendingAdvance() *document.Document {
	doc := &document.Document{
		ID:          42,
		Number:      "ADV-20260314-TEST",
		Kind:        document.KindAdvance,
		Status:      workflow.StatePendingReviewer1.String(),
		SubmitterID: "submitter",
		Reviewer1IDs: []document.UserID{"u1"},
		Reviewer2IDs: []document.UserID{"u2"},
		SubmittedAt: testTime,
		History: document.History{
			{Label: "SUBMITTED", Actor: "submitter", Timestamp: testTime},
		},
		Version: 1,
	}
	return doc
}

func TestSubmit(t *testing.T) {
	var created *document.Document
	store := &mockStore{
		createFunc: func(ctx context.Context, doc *document.Document) error {
			created = doc
			return nil
		},
	}
	eng := newEngine(store, &mockDirectory{})

	doc := &document.Document{
		Kind:         document.KindAdvance,
		SubmitterID:  "submitter",
		Reviewer1IDs: []document.UserID{"u1"},
		Reviewer2IDs: []document.UserID{"u2"},
	}
	res, err := eng.Submit(context.Background(), doc)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, workflow.StatePendingReviewer1.String(), res.Document.Status)
	assert.True(t, strings.HasPrefix(res.Document.Number, "ADV-20260314-"), res.Document.Number)
	assert.Equal(t, int64(1), res.Document.Version)
	require.Len(t, res.Document.History, 1)
	assert.Equal(t, "SUBMITTED", res.Document.History[0].Label)
	assert.Equal(t, testTime, res.Document.SubmittedAt)
}

func TestSubmit_MissingAssignments(t *testing.T) {
	eng := newEngine(&mockStore{}, &mockDirectory{})

	doc := &document.Document{
		Kind:        document.KindSettlement,
		SubmitterID: "submitter",
		// settlement needs validators, none assigned
		Reviewer1IDs: []document.UserID{"u1"},
		Reviewer2IDs: []document.UserID{"u2"},
	}
	_, err := eng.Submit(context.Background(), doc)
	assert.ErrorIs(t, err, workflow.ErrInvalidDocument)
}

func TestApprove(t *testing.T) {
	doc := pendingAdvance()
	var swapped struct {
		version int64
		status  string
		label   string
	}
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
		compareAndSwapFunc: func(ctx context.Context, id, expectedVersion int64, newStatus string, entry document.HistoryEntry, rejectReason, cancelReason string) error {
			swapped.version = expectedVersion
			swapped.status = newStatus
			swapped.label = entry.Label
			return nil
		},
	}
	eng := newEngine(store, &mockDirectory{})

	res, err := eng.Approve(context.Background(), 42, "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), swapped.version)
	assert.Equal(t, workflow.StatePendingReviewer2.String(), swapped.status)
	assert.Equal(t, "APPROVED_BY_REVIEWER1", swapped.label)

	assert.Equal(t, workflow.StatePendingReviewer2.String(), res.Document.Status)
	assert.Equal(t, int64(2), res.Document.Version)
	assert.Len(t, res.Document.History, 2)
}

func TestApprove_VersionConflict(t *testing.T) {
	doc := pendingAdvance()
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
		compareAndSwapFunc: func(ctx context.Context, id, expectedVersion int64, newStatus string, entry document.HistoryEntry, rejectReason, cancelReason string) error {
			return port.ErrVersionConflict
		},
	}
	eng := newEngine(store, &mockDirectory{})

	_, err := eng.Approve(context.Background(), 42, "u1")
	assert.ErrorIs(t, err, workflow.ErrConcurrentModification)
}

func TestApprove_WrongGate(t *testing.T) {
	doc := pendingAdvance()
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
	}
	eng := newEngine(store, &mockDirectory{})

	// u2's gate is Reviewer2; Reviewer1 is still open.
	_, err := eng.Approve(context.Background(), 42, "u2")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestApprove_Substitute(t *testing.T) {
	doc := pendingAdvance()
	var label string
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
		compareAndSwapFunc: func(ctx context.Context, id, expectedVersion int64, newStatus string, entry document.HistoryEntry, rejectReason, cancelReason string) error {
			label = entry.Label
			return nil
		},
	}
	dir := &mockDirectory{
		lookupFunc: func(ctx context.Context, id document.UserID) (*port.UserProfile, error) {
			return &port.UserProfile{ID: id, Name: "Stand In", IsPrivilegedSubstitute: true}, nil
		},
	}
	eng := newEngine(store, dir)

	res, err := eng.Approve(context.Background(), 42, "sub")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED_BY_SUBSTITUTE_FOR_REVIEWER1", label)
	assert.Equal(t, workflow.StatePendingReviewer2.String(), res.Document.Status)
}

func TestApprove_DirectoryFailureDegradesToNonSubstitute(t *testing.T) {
	doc := pendingAdvance()
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
	}
	dir := &mockDirectory{
		lookupFunc: func(ctx context.Context, id document.UserID) (*port.UserProfile, error) {
			return nil, errors.New("directory unreachable")
		},
	}
	eng := newEngine(store, dir)

	// Role holders keep working when the directory is down.
	_, err := eng.Approve(context.Background(), 42, "u1")
	assert.NoError(t, err)

	// A would-be substitute does not.
	_, err = eng.Approve(context.Background(), 42, "stranger")
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestApprove_NotFound(t *testing.T) {
	eng := newEngine(&mockStore{}, &mockDirectory{})

	_, err := eng.Approve(context.Background(), 99, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReject(t *testing.T) {
	doc := pendingAdvance()
	var swappedReason string
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
		compareAndSwapFunc: func(ctx context.Context, id, expectedVersion int64, newStatus string, entry document.HistoryEntry, rejectReason, cancelReason string) error {
			swappedReason = rejectReason
			return nil
		},
	}
	eng := newEngine(store, &mockDirectory{})

	res, err := eng.Reject(context.Background(), 42, "u1", "missing receipts")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateRejected.String(), res.Document.Status)
	assert.Equal(t, "missing receipts", res.Document.RejectReason)
	assert.Equal(t, "missing receipts", swappedReason)
}

func TestReject_ReasonRequired(t *testing.T) {
	doc := pendingAdvance()
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
	}
	eng := newEngine(store, &mockDirectory{})

	_, err := eng.Reject(context.Background(), 42, "u1", "")
	assert.ErrorIs(t, err, workflow.ErrRejectReasonRequired)
}

func TestCancel(t *testing.T) {
	doc := pendingAdvance()
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
	}
	eng := newEngine(store, &mockDirectory{})

	res, err := eng.Cancel(context.Background(), 42, "submitter", "duplicate entry")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCanceled.String(), res.Document.Status)
	assert.Equal(t, "duplicate entry", res.Document.CancelReason)
}

func TestCancel_AlreadyTerminal(t *testing.T) {
	doc := pendingAdvance()
	doc.Status = workflow.StateApproved.String()
	store := &mockStore{
		getByIDFunc: func(ctx context.Context, id int64) (*document.Document, error) {
			return doc, nil
		},
	}
	eng := newEngine(store, &mockDirectory{})

	_, err := eng.Cancel(context.Background(), 42, "submitter", "changed my mind")
	assert.ErrorIs(t, err, workflow.ErrAlreadyTerminal)
}
