package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
	consentDomain "github.com/scenespin/voiceconsent/internal/consent/domain"
	"github.com/scenespin/voiceconsent/internal/database"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
)

// consentUseCase implements ConsentUseCase.
type consentUseCase struct {
	retentionYears int
	consentRepo    ConsentRepository
	auditLog       AuditAppender
	txManager      database.TxManager
	logger         *slog.Logger
}

// NewConsentUseCase creates a new ConsentUseCase with the configured retention
// period in years.
func NewConsentUseCase(
	retentionYears int,
	consentRepo ConsentRepository,
	auditLog AuditAppender,
	txManager database.TxManager,
	logger *slog.Logger,
) ConsentUseCase {
	return &consentUseCase{
		retentionYears: retentionYears,
		consentRepo:    consentRepo,
		auditLog:       auditLog,
		txManager:      txManager,
		logger:         logger,
	}
}

// Create persists a new consent record and its consent_granted audit entry in
// one transaction. The retention deadline is computed here, once, and never
// recomputed afterwards.
func (c *consentUseCase) Create(
	ctx context.Context,
	subjectID uuid.UUID,
	agreedAt time.Time,
	performedBy *uuid.UUID,
) (*consentDomain.ConsentRecord, error) {
	if subjectID == uuid.Nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "subject id cannot be empty")
	}
	if agreedAt.IsZero() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "agreedAt timestamp cannot be zero")
	}

	record := consentDomain.NewConsentRecord(subjectID, agreedAt, c.retentionYears)

	err := c.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := c.consentRepo.Create(ctx, record); err != nil {
			return err
		}

		details := map[string]any{
			"subject_id":         record.SubjectID.String(),
			"agreed_at":          record.AgreedAt.Format(time.RFC3339),
			"retention_deadline": record.RetentionDeadline.Format(time.RFC3339),
		}
		return c.auditLog.Append(
			ctx,
			record.ID,
			auditDomain.ActionConsentGranted,
			performedBy,
			record.CreatedAt,
			details,
		)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create consent record")
	}

	if c.logger != nil {
		c.logger.Info("consent record created",
			slog.String("record_id", record.ID.String()),
			slog.Time("retention_deadline", record.RetentionDeadline),
		)
	}

	return record, nil
}

// Get retrieves one consent record by id.
func (c *consentUseCase) Get(ctx context.Context, id uuid.UUID) (*consentDomain.ConsentRecord, error) {
	record, err := c.consentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return record, nil
}
