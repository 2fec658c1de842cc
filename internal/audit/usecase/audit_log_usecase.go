package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
	auditService "github.com/scenespin/voiceconsent/internal/audit/service"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
)

// verifyBatchSize is how many entries VerifyBatch loads per page.
const verifyBatchSize = 500

// auditLogUseCase implements AuditLogUseCase. When a signer is configured,
// every appended entry is signed before persisting; a nil signer writes
// unsigned entries (flagged as such by verification).
type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       auditService.Signer
}

// Append writes one write-once entry to the log. Generates a UUIDv7 identifier,
// rejects actions outside the closed enumeration, and signs the entry content
// when signing is configured. The performedAt timestamp is supplied by the
// caller so the engine stays a pure function of its inputs.
func (a *auditLogUseCase) Append(
	ctx context.Context,
	consentID uuid.UUID,
	action auditDomain.Action,
	performedBy *uuid.UUID,
	performedAt time.Time,
	details map[string]any,
) error {
	if !action.Valid() {
		return auditDomain.ErrInvalidAction
	}
	if performedAt.IsZero() {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "performedAt timestamp cannot be zero")
	}

	entry := &auditDomain.AuditLogEntry{
		ID:          uuid.Must(uuid.NewV7()),
		ConsentID:   consentID,
		Action:      action,
		PerformedBy: performedBy,
		PerformedAt: performedAt.UTC(),
		Details:     details,
	}

	if a.signer != nil {
		signature, err := a.signer.Sign(entry)
		if err != nil {
			return apperrors.Wrap(err, "failed to sign audit log entry")
		}
		entry.Signature = signature
	}

	if err := a.auditLogRepo.Create(ctx, entry); err != nil {
		return apperrors.Wrap(err, "failed to append audit log entry")
	}

	return nil
}

// List retrieves entries ordered by performed_at ascending with pagination and
// optional inclusive time filters.
func (a *auditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	performedAtFrom, performedAtTo *time.Time,
) ([]*auditDomain.AuditLogEntry, error) {
	entries, err := a.auditLogRepo.List(ctx, offset, limit, performedAtFrom, performedAtTo)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries")
	}

	return entries, nil
}

// ListByConsentID retrieves the full history of one consent record.
func (a *auditLogUseCase) ListByConsentID(
	ctx context.Context,
	consentID uuid.UUID,
) ([]*auditDomain.AuditLogEntry, error) {
	entries, err := a.auditLogRepo.ListByConsentID(ctx, consentID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries by consent")
	}

	return entries, nil
}

// VerifyBatch checks signature integrity for every entry whose performed_at
// falls within [start, end]. Unsigned entries are counted separately rather
// than treated as invalid, so logs predating signing remain verifiable.
func (a *auditLogUseCase) VerifyBatch(ctx context.Context, start, end time.Time) (*VerificationReport, error) {
	if a.signer == nil {
		return nil, apperrors.New("audit log signing is not configured")
	}

	report := &VerificationReport{}
	offset := 0

	for {
		entries, err := a.auditLogRepo.List(ctx, offset, verifyBatchSize, &start, &end)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to load audit log entries for verification")
		}

		for _, entry := range entries {
			report.TotalChecked++

			if !entry.Signed() {
				report.UnsignedCount++
				continue
			}

			report.SignedCount++
			if err := a.signer.Verify(entry); err != nil {
				report.InvalidCount++
				report.InvalidEntries = append(report.InvalidEntries, entry.ID)
				continue
			}
			report.ValidCount++
		}

		if len(entries) < verifyBatchSize {
			break
		}
		offset += verifyBatchSize
	}

	return report, nil
}

// NewAuditLogUseCase creates a new AuditLogUseCase. A nil signer disables
// signing and verification.
func NewAuditLogUseCase(auditLogRepo AuditLogRepository, signer auditService.Signer) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		signer:       signer,
	}
}
