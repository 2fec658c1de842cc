// Package http provides HTTP handlers for consent record operations.
// Consent records are created with a fixed retention deadline and soft-deleted
// only by the retention engine, never through this API.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scenespin/voiceconsent/internal/consent/http/dto"
	consentUseCase "github.com/scenespin/voiceconsent/internal/consent/usecase"
	"github.com/scenespin/voiceconsent/internal/httputil"
	customValidation "github.com/scenespin/voiceconsent/internal/validation"
)

// ConsentHandler handles HTTP requests for consent record operations.
type ConsentHandler struct {
	consentUseCase consentUseCase.ConsentUseCase
	logger         *slog.Logger
}

// NewConsentHandler creates a new consent handler with required dependencies.
func NewConsentHandler(
	consentUseCase consentUseCase.ConsentUseCase,
	logger *slog.Logger,
) *ConsentHandler {
	return &ConsentHandler{
		consentUseCase: consentUseCase,
		logger:         logger,
	}
}

// CreateHandler records a new consent with its retention deadline.
// POST /v1/consents
// Returns 201 Created with the full record including the computed deadline.
func (h *ConsentHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateConsentRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Values are parseable after validation
	subjectID := uuid.MustParse(req.SubjectID)
	agreedAt, _ := time.Parse(time.RFC3339, req.AgreedAt)

	var performedBy *uuid.UUID
	if req.PerformedBy != "" {
		id := uuid.MustParse(req.PerformedBy)
		performedBy = &id
	}

	// Call use case
	record, err := h.consentUseCase.Create(c.Request.Context(), subjectID, agreedAt, performedBy)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapConsentToResponse(record)
	c.JSON(http.StatusCreated, response)
}

// GetHandler retrieves a consent record by its id.
// GET /v1/consents/:id
// Returns 200 OK with the record, including deleted_at for enforced records.
func (h *ConsentHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid consent id: must be a valid UUID"),
			h.logger,
		)
		return
	}

	record, err := h.consentUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapConsentToResponse(record)
	c.JSON(http.StatusOK, response)
}
