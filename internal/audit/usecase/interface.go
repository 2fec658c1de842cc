// Package usecase implements business logic for the append-only audit log.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
)

// AuditLogRepository defines the persistence operations for audit log entries.
// The contract is append-only: there is no update or delete.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *auditDomain.AuditLogEntry) error

	// List retrieves entries ordered by performed_at ascending with pagination
	// and optional inclusive time filters (nil means no filter).
	List(
		ctx context.Context,
		offset, limit int,
		performedAtFrom, performedAtTo *time.Time,
	) ([]*auditDomain.AuditLogEntry, error)

	// ListByConsentID retrieves the full history of one consent record, oldest first.
	ListByConsentID(ctx context.Context, consentID uuid.UUID) ([]*auditDomain.AuditLogEntry, error)
}

// VerificationReport summarizes a batch integrity check over the audit log.
type VerificationReport struct {
	TotalChecked   int64
	SignedCount    int64
	UnsignedCount  int64
	ValidCount     int64
	InvalidCount   int64
	InvalidEntries []uuid.UUID
}

// AuditLogUseCase defines the operations exposed by the audit log module.
type AuditLogUseCase interface {
	// Append writes one entry to the log. performedBy nil means the system
	// actor. The entry is signed before persisting when signing is configured.
	Append(
		ctx context.Context,
		consentID uuid.UUID,
		action auditDomain.Action,
		performedBy *uuid.UUID,
		performedAt time.Time,
		details map[string]any,
	) error

	// List retrieves entries with pagination and optional time filters.
	List(
		ctx context.Context,
		offset, limit int,
		performedAtFrom, performedAtTo *time.Time,
	) ([]*auditDomain.AuditLogEntry, error)

	// ListByConsentID retrieves the full history of one consent record.
	ListByConsentID(ctx context.Context, consentID uuid.UUID) ([]*auditDomain.AuditLogEntry, error)

	// VerifyBatch checks signature integrity for every entry in the time range.
	VerifyBatch(ctx context.Context, start, end time.Time) (*VerificationReport, error)
}
