// Package http provides read-only HTTP handlers for the audit log.
// The log is append-only: this API exposes listing and per-record history,
// never mutation.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scenespin/voiceconsent/internal/audit/http/dto"
	auditUseCase "github.com/scenespin/voiceconsent/internal/audit/usecase"
	"github.com/scenespin/voiceconsent/internal/httputil"
)

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase auditUseCase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler retrieves audit logs with pagination support and optional time-based filtering.
// GET /v1/audit-logs?offset=0&limit=50&performed_at_from=2026-02-01T00:00:00Z&performed_at_to=2026-02-14T23:59:59Z
// Returns 200 OK with entries ordered by performed_at ascending. Accepts optional
// performed_at_from and performed_at_to query parameters in RFC3339 format.
// Timestamps are converted to UTC. Both boundaries are inclusive (>= and <=).
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	// Parse offset and limit query parameters
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Parse optional performed_at_from query parameter
	var performedAtFrom *time.Time
	if fromStr := c.Query("performed_at_from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid performed_at_from format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)"),
				h.logger)
			return
		}
		utcTime := parsed.UTC()
		performedAtFrom = &utcTime
	}

	// Parse optional performed_at_to query parameter
	var performedAtTo *time.Time
	if toStr := c.Query("performed_at_to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid performed_at_to format: must be RFC3339 (e.g., 2026-02-14T23:59:59Z)"),
				h.logger)
			return
		}
		utcTime := parsed.UTC()
		performedAtTo = &utcTime
	}

	// Validate that performed_at_from is before or equal to performed_at_to
	if performedAtFrom != nil && performedAtTo != nil && performedAtFrom.After(*performedAtTo) {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("performed_at_from must be before or equal to performed_at_to"),
			h.logger)
		return
	}

	// Call use case
	entries, err := h.auditLogUseCase.List(c.Request.Context(), offset, limit, performedAtFrom, performedAtTo)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapAuditLogsToListResponse(entries)
	c.JSON(http.StatusOK, response)
}

// ListByConsentHandler retrieves the full audit history of one consent record.
// GET /v1/consents/:id/audit-logs
// Returns 200 OK with entries ordered oldest first. The list can be non-empty
// even after the consent record itself was soft-deleted.
func (h *AuditLogHandler) ListByConsentHandler(c *gin.Context) {
	consentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid consent id: must be a valid UUID"),
			h.logger,
		)
		return
	}

	entries, err := h.auditLogUseCase.ListByConsentID(c.Request.Context(), consentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapAuditLogsToListResponse(entries)
	c.JSON(http.StatusOK, response)
}
