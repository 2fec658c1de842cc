// Package usecase implements business logic for consent record creation and
// retrieval. Creation is the only writer of the agreement time and retention
// deadline; after that, only the retention engine mutates a record.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
	consentDomain "github.com/scenespin/voiceconsent/internal/consent/domain"
)

// ConsentRepository defines the persistence operations this module needs.
type ConsentRepository interface {
	Create(ctx context.Context, record *consentDomain.ConsentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*consentDomain.ConsentRecord, error)
}

// AuditAppender is the write-only slice of the audit log this module uses.
type AuditAppender interface {
	Append(
		ctx context.Context,
		consentID uuid.UUID,
		action auditDomain.Action,
		performedBy *uuid.UUID,
		performedAt time.Time,
		details map[string]any,
	) error
}

// ConsentUseCase defines the operations exposed by the consent module.
type ConsentUseCase interface {
	// Create records a new consent with its retention deadline fixed at
	// creation time and writes the consent_granted audit entry. performedBy
	// nil attributes the grant to the system actor.
	Create(
		ctx context.Context,
		subjectID uuid.UUID,
		agreedAt time.Time,
		performedBy *uuid.UUID,
	) (*consentDomain.ConsentRecord, error)

	// Get retrieves one consent record by id.
	Get(ctx context.Context, id uuid.UUID) (*consentDomain.ConsentRecord, error)
}
