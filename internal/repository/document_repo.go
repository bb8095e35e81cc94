package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/reimbursement-approval/internal/application/port"
	"github.com/garyjia/reimbursement-approval/internal/domain/document"
	"github.com/garyjia/reimbursement-approval/internal/domain/workflow"
)

// DocumentRepository is the SQLite implementation of port.DocumentStore.
// Role-assignment sets are stored as JSON arrays; history lives in its own
// append-only table and is loaded with every document read.
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

var _ port.DocumentStore = (*DocumentRepository)(nil)

// Create persists a freshly submitted document and its initial history entry
func (r *DocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `
		INSERT INTO documents (
			number, kind, status, submitter_id,
			validator_ids, reviewer1_ids, reviewer2_ids,
			submitted_at, reject_reason, cancel_reason, version,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		doc.Number,
		string(doc.Kind),
		doc.Status,
		string(doc.SubmitterID),
		marshalUserIDs(doc.ValidatorIDs),
		marshalUserIDs(doc.Reviewer1IDs),
		marshalUserIDs(doc.Reviewer2IDs),
		doc.SubmittedAt,
		doc.RejectReason,
		doc.CancelReason,
		doc.Version,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.String("number", doc.Number), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	doc.ID = id

	for _, entry := range doc.History {
		if err := insertHistory(ctx, tx, id, entry); err != nil {
			r.logger.Error("Failed to insert history entry", zap.Int64("document_id", id), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create: %w", err)
	}
	return nil
}

// GetByID retrieves a document with its full history
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*document.Document, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByNumber retrieves a document by display number
func (r *DocumentRepository) GetByNumber(ctx context.Context, number string) (*document.Document, error) {
	return r.getOne(ctx, "number = ?", number)
}

func (r *DocumentRepository) getOne(ctx context.Context, where string, arg interface{}) (*document.Document, error) {
	query := `
		SELECT id, number, kind, status, submitter_id,
			validator_ids, reviewer1_ids, reviewer2_ids,
			submitted_at, reject_reason, cancel_reason, version,
			created_at, updated_at
		FROM documents
		WHERE ` + where

	doc, err := r.scanDocument(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.Any("arg", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if err := r.loadHistory(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CompareAndSwap atomically advances status and appends the history entry,
// guarded on the expected version. Zero rows updated means another
// transition won the race.
func (r *DocumentRepository) CompareAndSwap(
	ctx context.Context,
	id int64,
	expectedVersion int64,
	newStatus string,
	entry document.HistoryEntry,
	rejectReason, cancelReason string,
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, reject_reason = ?, cancel_reason = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, newStatus, rejectReason, cancelReason, time.Now(), id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update document status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %d at version %d", port.ErrVersionConflict, id, expectedVersion)
	}

	if err := insertHistory(ctx, tx, id, entry); err != nil {
		r.logger.Error("Failed to append history entry", zap.Int64("document_id", id), zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// List returns documents filtered by status ("" for all), newest first
func (r *DocumentRepository) List(ctx context.Context, status string, limit, offset int) ([]*document.Document, error) {
	query := `
		SELECT id, number, kind, status, submitter_id,
			validator_ids, reviewer1_ids, reviewer2_ids,
			submitted_at, reject_reason, cancel_reason, version,
			created_at, updated_at
		FROM documents
	`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY submitted_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	return r.queryDocuments(ctx, query, args...)
}

// ListStale returns non-terminal documents submitted before the cutoff
func (r *DocumentRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*document.Document, error) {
	query := `
		SELECT id, number, kind, status, submitter_id,
			validator_ids, reviewer1_ids, reviewer2_ids,
			submitted_at, reject_reason, cancel_reason, version,
			created_at, updated_at
		FROM documents
		WHERE status NOT IN (?, ?, ?) AND submitted_at < ?
		ORDER BY submitted_at ASC
	`
	return r.queryDocuments(ctx, query,
		workflow.StateApproved.String(),
		workflow.StateRejected.String(),
		workflow.StateCanceled.String(),
		cutoff,
	)
}

func (r *DocumentRepository) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]*document.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query documents", zap.Error(err))
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	for _, doc := range docs {
		if err := r.loadHistory(ctx, doc); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *DocumentRepository) scanDocument(row rowScanner) (*document.Document, error) {
	var doc document.Document
	var kind, submitterID string
	var validatorIDs, reviewer1IDs, reviewer2IDs string

	err := row.Scan(
		&doc.ID,
		&doc.Number,
		&kind,
		&doc.Status,
		&submitterID,
		&validatorIDs,
		&reviewer1IDs,
		&reviewer2IDs,
		&doc.SubmittedAt,
		&doc.RejectReason,
		&doc.CancelReason,
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Kind = document.Kind(kind)
	doc.SubmitterID = document.UserID(submitterID)
	doc.ValidatorIDs = unmarshalUserIDs(validatorIDs)
	doc.Reviewer1IDs = unmarshalUserIDs(reviewer1IDs)
	doc.Reviewer2IDs = unmarshalUserIDs(reviewer2IDs)
	return &doc, nil
}

func (r *DocumentRepository) loadHistory(ctx context.Context, doc *document.Document) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT label, actor, timestamp
		FROM document_history
		WHERE document_id = ?
		ORDER BY id ASC
	`, doc.ID)
	if err != nil {
		r.logger.Error("Failed to load history", zap.Int64("document_id", doc.ID), zap.Error(err))
		return fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var history document.History
	for rows.Next() {
		var entry document.HistoryEntry
		var actor string
		if err := rows.Scan(&entry.Label, &actor, &entry.Timestamp); err != nil {
			return fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Actor = document.UserID(actor)
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate history: %w", err)
	}

	doc.History = history
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, documentID int64, entry document.HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO document_history (document_id, label, actor, timestamp)
		VALUES (?, ?, ?, ?)
	`, documentID, entry.Label, string(entry.Actor), entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

func marshalUserIDs(ids []document.UserID) string {
	if len(ids) == 0 {
		return "[]"
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalUserIDs(data string) []document.UserID {
	if data == "" {
		return nil
	}
	var ids []document.UserID
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
