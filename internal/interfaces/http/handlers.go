package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/reimbursement-approval/internal/application/engine"
	"github.com/garyjia/reimbursement-approval/internal/application/service"
	"github.com/garyjia/reimbursement-approval/internal/domain/document"
	"github.com/garyjia/reimbursement-approval/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService service.ApprovalService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(approvalService service.ApprovalService, logger Logger) *Handlers {
	return &Handlers{
		approvalService: approvalService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitDocumentRequest is the payload for submitting a document
type SubmitDocumentRequest struct {
	Kind         string   `json:"kind" binding:"required"`
	SubmitterID  string   `json:"submitter_id" binding:"required"`
	ValidatorIDs []string `json:"validator_ids"`
	Reviewer1IDs []string `json:"reviewer1_ids"`
	Reviewer2IDs []string `json:"reviewer2_ids"`
}

// ActionRequest is the payload for approve/reject/cancel actions. The acting
// user is always explicit; the server never infers it from ambient state.
type ActionRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Reason  string `json:"reason"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID           int64                  `json:"id"`
	Number       string                 `json:"number"`
	Kind         string                 `json:"kind"`
	Status       string                 `json:"status"`
	SubmitterID  string                 `json:"submitter_id"`
	ValidatorIDs []document.UserID      `json:"validator_ids,omitempty"`
	Reviewer1IDs []document.UserID      `json:"reviewer1_ids"`
	Reviewer2IDs []document.UserID      `json:"reviewer2_ids"`
	SubmittedAt  string                 `json:"submitted_at"`
	RejectReason string                 `json:"reject_reason,omitempty"`
	CancelReason string                 `json:"cancel_reason,omitempty"`
	History      []HistoryEntryResponse `json:"history"`
}

// HistoryEntryResponse represents one history entry in API responses
type HistoryEntryResponse struct {
	Label     string `json:"label"`
	Actor     string `json:"actor"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitDocument handles POST /api/v1/documents
func (h *Handlers) SubmitDocument(c *gin.Context) {
	var req SubmitDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	doc := &document.Document{
		Kind:         document.Kind(req.Kind),
		SubmitterID:  document.UserID(req.SubmitterID),
		ValidatorIDs: toUserIDs(req.ValidatorIDs),
		Reviewer1IDs: toUserIDs(req.Reviewer1IDs),
		Reviewer2IDs: toUserIDs(req.Reviewer2IDs),
	}

	created, err := h.approvalService.Submit(c.Request.Context(), doc)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toDocumentResponse(created)})
}

// ListDocuments handles GET /api/v1/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.approvalService.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// GetDocument handles GET /api/v1/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	doc, err := h.approvalService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// GetDocumentByNumber handles GET /api/v1/documents/number/:number
func (h *Handlers) GetDocumentByNumber(c *gin.Context) {
	doc, err := h.approvalService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

// ApproveDocument handles POST /api/v1/documents/:id/approve
func (h *Handlers) ApproveDocument(c *gin.Context) {
	h.action(c, func(id int64, req ActionRequest) (*document.Document, error) {
		return h.approvalService.Approve(c.Request.Context(), id, document.UserID(req.ActorID))
	})
}

// RejectDocument handles POST /api/v1/documents/:id/reject
func (h *Handlers) RejectDocument(c *gin.Context) {
	h.action(c, func(id int64, req ActionRequest) (*document.Document, error) {
		return h.approvalService.Reject(c.Request.Context(), id, document.UserID(req.ActorID), req.Reason)
	})
}

// CancelDocument handles POST /api/v1/documents/:id/cancel
func (h *Handlers) CancelDocument(c *gin.Context) {
	h.action(c, func(id int64, req ActionRequest) (*document.Document, error) {
		return h.approvalService.Cancel(c.Request.Context(), id, document.UserID(req.ActorID), req.Reason)
	})
}

func (h *Handlers) action(c *gin.Context, run func(id int64, req ActionRequest) (*document.Document, error)) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	doc, err := run(id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toDocumentResponse(doc)})
}

func (h *Handlers) documentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid document id"})
		return 0, false
	}
	return id, true
}

func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidDocument),
		errors.Is(err, workflow.ErrRejectReasonRequired):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrAlreadyTerminal),
		errors.Is(err, workflow.ErrConcurrentModification):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

func toUserIDs(ids []string) []document.UserID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]document.UserID, len(ids))
	for i, id := range ids {
		out[i] = document.UserID(id)
	}
	return out
}

func toDocumentResponse(doc *document.Document) DocumentResponse {
	history := make([]HistoryEntryResponse, len(doc.History))
	for i, e := range doc.History {
		history[i] = HistoryEntryResponse{
			Label:     e.Label,
			Actor:     string(e.Actor),
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	return DocumentResponse{
		ID:           doc.ID,
		Number:       doc.Number,
		Kind:         doc.Kind.String(),
		Status:       doc.Status,
		SubmitterID:  string(doc.SubmitterID),
		ValidatorIDs: doc.ValidatorIDs,
		Reviewer1IDs: doc.Reviewer1IDs,
		Reviewer2IDs: doc.Reviewer2IDs,
		SubmittedAt:  doc.SubmittedAt.UTC().Format(time.RFC3339),
		RejectReason: doc.RejectReason,
		CancelReason: doc.CancelReason,
		History:      history,
	}
}
