// Audit HTTP handlers.
//
// This file exposes REST endpoints for audit resources:
//   - POST   /audit                    (submit, blocks until the pipeline finishes)
//   - GET    /audits                   (list, paginated)
//   - GET    /audits/{request_id}      (fetch one)
//   - GET    /ping                     (liveness)
//
// Handlers are transport-thin: they validate input, call the audit service,
// and translate results into HTTP responses. The submission endpoint runs the
// pipeline on a detached context so a dropped client connection does not
// abort an audit that is already consuming scrape and model quota.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-seo-audit-backend/internal/audit"
	"github.com/tbourn/go-seo-audit-backend/internal/domain"
	"github.com/tbourn/go-seo-audit-backend/internal/notify"
	"github.com/tbourn/go-seo-audit-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuditService defines the pipeline operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuditService interface {
	// Run executes the full audit pipeline for rawURL under requestID.
	Run(ctx context.Context, requestID, rawURL string) (*audit.Result, error)
	// Get returns the persisted audit for requestID.
	Get(ctx context.Context, requestID string) (*domain.Audit, error)
	// ListPage returns a page of audits and the total count.
	ListPage(ctx context.Context, offset, limit int) ([]domain.Audit, int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for audits and streaming.
type Handlers struct {
	auditSvc AuditService
	hub      *notify.Hub
}

// New constructs a Handlers instance bound to the given service and hub.
func New(auditSvc AuditService, hub *notify.Hub) *Handlers {
	return &Handlers{auditSvc: auditSvc, hub: hub}
}

//
// DTOs
//

// SubmitAuditRequest is the JSON payload for submitting an audit.
type SubmitAuditRequest struct {
	// URL is the page to audit. A missing scheme defaults to https.
	URL string `json:"url" example:"https://example.com/pricing"`
	// RequestID optionally names the run so a stream can be attached before
	// submission. Generated when empty.
	RequestID string `json:"request_id,omitempty" example:"req-42"`
}

// AuditResponse is the success envelope for a completed audit.
type AuditResponse struct {
	Status          string   `json:"status" example:"success"`
	URL             string   `json:"url"`
	RequestID       string   `json:"request_id"`
	Result          string   `json:"result"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// AuditErrorResponse is the failure envelope for the submission endpoint.
type AuditErrorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListAuditsResponse wraps a page of audits and pagination information.
type ListAuditsResponse struct {
	Audits     []domain.Audit `json:"audits"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// auditFail writes the submission-specific error envelope.
func auditFail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, AuditErrorResponse{
		Error:   err.Error(),
		Status:  "error",
		Message: "audit failed: " + err.Error(),
	})
}

//
// Handlers
//

// SubmitAudit godoc
// @ID          submitAudit
// @Summary     Run an SEO audit
// @Description Audits the given URL through the full pipeline and returns the report. Progress can be observed live on the stream endpoint using the same request_id.
// @Tags        Audits
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SubmitAuditRequest  true  "Audit submission"
//
// @Success     200  {object}  handlers.AuditResponse
// @Failure     400  {object}  handlers.AuditErrorResponse  "Invalid submission"
// @Failure     500  {object}  handlers.AuditErrorResponse  "Pipeline failure"
// @Router      /audit [post]
func (h *Handlers) SubmitAudit(c *gin.Context) {
	var req SubmitAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		auditFail(c, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		auditFail(c, http.StatusBadRequest, audit.ErrEmptyURL)
		return
	}

	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	// Make sure an event queue exists before the pipeline starts emitting,
	// so a stream attached mid-run still sees buffered history.
	h.hub.Register(requestID)
	defer h.hub.Remove(requestID)

	type outcome struct {
		res *audit.Result
		err error
	}
	done := make(chan outcome, 1)

	// Detached context: a client hanging up must not waste an audit that
	// already spent scrape and model quota.
	runCtx := context.WithoutCancel(c.Request.Context())
	go func() {
		res, err := h.auditSvc.Run(runCtx, requestID, req.URL)
		done <- outcome{res: res, err: err}
	}()

	out := <-done
	if out.err != nil {
		status := http.StatusInternalServerError
		if errors.Is(out.err, audit.ErrEmptyURL) || errors.Is(out.err, audit.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		auditFail(c, status, out.err)
		return
	}

	ok(c, http.StatusOK, AuditResponse{
		Status:          "success",
		URL:             out.res.URL,
		RequestID:       requestID,
		Result:          out.res.Report,
		Summary:         out.res.Summary,
		Recommendations: out.res.Recommendations,
	})
}

// GetAudit godoc
// @ID          getAudit
// @Summary     Fetch one audit
// @Description Returns the persisted audit for a request id.
// @Tags        Audits
// @Produce     json
//
// @Param       request_id  path  string  true  "Request ID"
//
// @Success     200  {object}  domain.Audit
// @Failure     404  {object}  handlers.ErrorResponse  "Audit not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /audits/{request_id} [get]
func (h *Handlers) GetAudit(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("request_id"))
	if requestID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id required")
		return
	}

	a, err := h.auditSvc.Get(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, audit.ErrAuditNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "audit not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, a)
}

// ListAudits godoc
// @ID          listAudits
// @Summary     List audits (paginated)
// @Description Returns a page of audits, most recent first.
// @Tags        Audits
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListAuditsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /audits [get]
func (h *Handlers) ListAudits(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.auditSvc.ListPage(c.Request.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListAuditsResponse{
		Audits: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// Ping godoc
// @ID          ping
// @Summary     Liveness probe
// @Tags        System
// @Produce     json
//
// @Success     200  {object}  map[string]string
// @Router      /ping [get]
func (h *Handlers) Ping(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status":  "ok",
		"message": "SEO audit service is running",
	})
}
