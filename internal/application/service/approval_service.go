package service

import (
	"context"
	"fmt"

	"github.com/garyjia/reimbursement-approval/internal/application/engine"
	"github.com/garyjia/reimbursement-approval/internal/application/notification"
	"github.com/garyjia/reimbursement-approval/internal/application/port"
	"github.com/garyjia/reimbursement-approval/internal/domain/document"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ApprovalService is the application entry point for document actions. Each
// action runs the workflow engine and then hands the applied transition to
// the notification pipeline; notification is best-effort and never undoes a
// transition that already committed.
type ApprovalService interface {
	Submit(ctx context.Context, doc *document.Document) (*document.Document, error)
	Approve(ctx context.Context, docID int64, actor document.UserID) (*document.Document, error)
	Reject(ctx context.Context, docID int64, actor document.UserID, reason string) (*document.Document, error)
	Cancel(ctx context.Context, docID int64, actor document.UserID, reason string) (*document.Document, error)
	Get(ctx context.Context, docID int64) (*document.Document, error)
	GetByNumber(ctx context.Context, number string) (*document.Document, error)
	List(ctx context.Context, status string, limit, offset int) ([]*document.Document, error)
}

type approvalServiceImpl struct {
	engine   engine.Engine
	store    port.DocumentStore
	notifier notification.Service
	logger   Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	eng engine.Engine,
	store port.DocumentStore,
	notifier notification.Service,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		engine:   eng,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Submit enters a document into the workflow and notifies the first gate
func (s *approvalServiceImpl) Submit(ctx context.Context, doc *document.Document) (*document.Document, error) {
	result, err := s.engine.Submit(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, result)
	return result.Document, nil
}

// Approve applies an approve action and notifies the next gate or the submitter
func (s *approvalServiceImpl) Approve(ctx context.Context, docID int64, actor document.UserID) (*document.Document, error) {
	result, err := s.engine.Approve(ctx, docID, actor)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, result)
	return result.Document, nil
}

// Reject applies a reject action and notifies the submitter
func (s *approvalServiceImpl) Reject(ctx context.Context, docID int64, actor document.UserID, reason string) (*document.Document, error) {
	result, err := s.engine.Reject(ctx, docID, actor, reason)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, result)
	return result.Document, nil
}

// Cancel records a cancellation; no notification is planned for it
func (s *approvalServiceImpl) Cancel(ctx context.Context, docID int64, actor document.UserID, reason string) (*document.Document, error) {
	result, err := s.engine.Cancel(ctx, docID, actor, reason)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, result)
	return result.Document, nil
}

// Get retrieves a document with its history
func (s *approvalServiceImpl) Get(ctx context.Context, docID int64) (*document.Document, error) {
	doc, err := s.store.GetByID(ctx, docID)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", docID)
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: id %d", engine.ErrNotFound, docID)
	}
	return doc, nil
}

// GetByNumber retrieves a document by its display number
func (s *approvalServiceImpl) GetByNumber(ctx context.Context, number string) (*document.Document, error) {
	doc, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		s.logger.Error("Failed to get document by number", "error", err, "number", number)
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: number %s", engine.ErrNotFound, number)
	}
	return doc, nil
}

// List returns documents filtered by status with paging
func (s *approvalServiceImpl) List(ctx context.Context, status string, limit, offset int) ([]*document.Document, error) {
	docs, err := s.store.List(ctx, status, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "status", status)
		return nil, err
	}
	return docs, nil
}

func (s *approvalServiceImpl) notify(ctx context.Context, result *engine.Result) {
	intent := notification.Plan(result.Document, result.Transition)
	if err := s.notifier.Dispatch(ctx, intent); err != nil {
		// Dispatch already logs; nothing to do here.
		s.logger.Error("Notification dispatch failed", "error", err, "document_id", result.Document.ID)
	}
}
