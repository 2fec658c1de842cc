// Package usecase implements the retention enforcement engine: the scan for
// due consent records, the per-record enforcer, and the job orchestrator.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
	consentDomain "github.com/scenespin/voiceconsent/internal/consent/domain"
	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
)

// ConsentRepository defines the consent store operations the engine needs.
type ConsentRepository interface {
	// FindDue retrieves records with deleted_at unset and retention_deadline
	// at or before now, oldest deadline first. Pure read.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*consentDomain.ConsentRecord, error)

	// CountDue counts records due for enforcement without mutating anything.
	CountDue(ctx context.Context, now time.Time) (int64, error)

	// MarkDeleted sets deleted_at if and only if it is currently unset.
	// alreadyDeleted reports that a concurrent run committed first.
	MarkDeleted(ctx context.Context, id uuid.UUID, deletedAt time.Time) (alreadyDeleted bool, err error)
}

// AuditAppender is the write-only slice of the audit log the engine uses.
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

// DeletionGateway requests removal of a subject's dependent artifacts from
// downstream systems. Implementations must isolate per-artifact failures and
// report them instead of returning an error: the cascade is best effort and
// never blocks the soft delete of the consent record itself.
type DeletionGateway interface {
	DeleteDependentArtifacts(ctx context.Context, subjectID uuid.UUID) (int64, []retentionDomain.ArtifactFailure)
}

// AlertEnqueuer hands a job summary that needs operator attention to the
// alert pipeline. Delivery is a separate concern.
type AlertEnqueuer interface {
	EnqueueRetentionAlert(ctx context.Context, summary *retentionDomain.JobSummary) error
}

// Enforcer applies the retention rules to one due record, isolated from all
// other records. Never returns an error: every problem is folded into the
// outcome.
type Enforcer interface {
	Enforce(ctx context.Context, record *consentDomain.ConsentRecord, now time.Time) retentionDomain.EnforcementOutcome
}

// UseCase is the scheduled entry point of the retention engine.
type UseCase interface {
	// Run scans for due records at the supplied timestamp and enforces each
	// one. The error return is reserved for scanner failures; per-record
	// problems live in the summary.
	Run(ctx context.Context, now time.Time) (*retentionDomain.JobSummary, error)

	// DryRun reports what Run would do at the supplied timestamp without
	// mutating any state.
	DryRun(ctx context.Context, now time.Time) (*retentionDomain.JobSummary, error)
}
