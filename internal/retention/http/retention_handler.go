// Package http provides the HTTP trigger for the retention enforcement job.
// The endpoint is gated by the trigger-token middleware: the scheduler that
// calls it is trusted, this layer only carries the signal.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scenespin/voiceconsent/internal/httputil"
	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
	"github.com/scenespin/voiceconsent/internal/retention/http/dto"
	retentionUseCase "github.com/scenespin/voiceconsent/internal/retention/usecase"
	customValidation "github.com/scenespin/voiceconsent/internal/validation"
)

// RetentionHandler handles HTTP requests that trigger retention enforcement.
type RetentionHandler struct {
	retentionUseCase retentionUseCase.UseCase
	logger           *slog.Logger
}

// NewRetentionHandler creates a new retention handler with required dependencies.
func NewRetentionHandler(
	retentionUseCase retentionUseCase.UseCase,
	logger *slog.Logger,
) *RetentionHandler {
	return &RetentionHandler{
		retentionUseCase: retentionUseCase,
		logger:           logger,
	}
}

// TriggerHandler runs the retention enforcement job and returns its summary.
// POST /v1/retention/run
// The body is optional: {"now": "2026-02-01T00:00:00Z", "dry_run": true}.
// Returns 200 OK with the job summary; per-record failures are part of the
// summary, not an HTTP error.
func (h *RetentionHandler) TriggerHandler(c *gin.Context) {
	var req dto.TriggerRetentionRequest

	// The body is optional; bind only when one was sent
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	now := time.Now().UTC()
	if req.Now != "" {
		parsed, _ := time.Parse(time.RFC3339, req.Now)
		now = parsed.UTC()
	}

	var summary *retentionDomain.JobSummary
	var err error
	if req.DryRun {
		summary, err = h.retentionUseCase.DryRun(c.Request.Context(), now)
	} else {
		summary, err = h.retentionUseCase.Run(c.Request.Context(), now)
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, summary)
}
