package usecase

import (
	"context"
	"log/slog"
	"time"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
	consentDomain "github.com/scenespin/voiceconsent/internal/consent/domain"
	"github.com/scenespin/voiceconsent/internal/database"
	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
)

// retentionEnforcer implements Enforcer.
//
// Ordering per record: best-effort artifact cascade first, then the soft
// delete and its audit entry in one transaction. A crash between cascade and
// commit leaves the record selectable by the next run, and downstream
// deletions are idempotent by the gateway contract, so re-running converges.
type retentionEnforcer struct {
	consentRepo ConsentRepository
	auditLog    AuditAppender
	gateway     DeletionGateway
	txManager   database.TxManager
	logger      *slog.Logger
}

// NewRetentionEnforcer creates a new Enforcer. The gateway may be nil when no
// downstream systems are configured; the cascade is then skipped.
func NewRetentionEnforcer(
	consentRepo ConsentRepository,
	auditLog AuditAppender,
	gateway DeletionGateway,
	txManager database.TxManager,
	logger *slog.Logger,
) Enforcer {
	return &retentionEnforcer{
		consentRepo: consentRepo,
		auditLog:    auditLog,
		gateway:     gateway,
		txManager:   txManager,
		logger:      logger,
	}
}

// Enforce applies the retention rules to one record. Problems are folded into
// the returned outcome; sibling records are never affected.
func (e *retentionEnforcer) Enforce(
	ctx context.Context,
	record *consentDomain.ConsentRecord,
	now time.Time,
) retentionDomain.EnforcementOutcome {
	// Idempotency: a record deleted by an earlier or concurrent run is a
	// no-op success with no duplicate audit entry. The conditional write
	// below re-checks against the store, so a stale in-memory snapshot
	// cannot produce a double delete either.
	if record.Deleted() {
		return retentionDomain.NoOpOutcome(record.ID, record.SubjectID)
	}

	artifactsDeleted, artifactFailures := e.cascade(ctx, record, now)

	alreadyDeleted := false
	err := e.txManager.WithTx(ctx, func(ctx context.Context) error {
		var txErr error
		alreadyDeleted, txErr = e.consentRepo.MarkDeleted(ctx, record.ID, now)
		if txErr != nil {
			return txErr
		}
		if alreadyDeleted {
			return nil
		}

		details := map[string]any{
			"retention_deadline": record.RetentionDeadline.UTC().Format(time.RFC3339),
			"agreed_at":          record.AgreedAt.UTC().Format(time.RFC3339),
			"artifacts_deleted":  artifactsDeleted,
		}
		return e.auditLog.Append(ctx, record.ID, auditDomain.ActionAutoDeletedRetention, nil, now, details)
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Error("failed to enforce retention on consent record",
				slog.String("record_id", record.ID.String()),
				slog.Any("error", err),
			)
		}
		return retentionDomain.FailureOutcome(record.ID, record.SubjectID, err.Error())
	}

	if alreadyDeleted {
		// Lost the race after the cascade already ran: keep the cascade
		// results on the outcome so the summary stays accurate.
		outcome := retentionDomain.NoOpOutcome(record.ID, record.SubjectID)
		outcome.ArtifactsDeleted = artifactsDeleted
		outcome.ArtifactFailures = artifactFailures
		return outcome
	}

	return retentionDomain.SuccessOutcome(record.ID, record.SubjectID, artifactsDeleted, artifactFailures)
}

// cascade requests removal of the record's dependent artifacts and audits
// each failure. Audit writes here are best effort: losing a failure entry
// must not abort the record's own soft delete.
func (e *retentionEnforcer) cascade(
	ctx context.Context,
	record *consentDomain.ConsentRecord,
	now time.Time,
) (int64, []retentionDomain.ArtifactFailure) {
	if e.gateway == nil {
		return 0, nil
	}

	count, failures := e.gateway.DeleteDependentArtifacts(ctx, record.SubjectID)

	for _, failure := range failures {
		details := map[string]any{
			"kind":   string(failure.Kind),
			"reason": failure.Reason,
		}
		if failure.Reference != "" {
			details["reference"] = failure.Reference
		}
		err := e.auditLog.Append(
			ctx,
			record.ID,
			auditDomain.ActionArtifactDeleteFailed,
			nil,
			now,
			details,
		)
		if err != nil && e.logger != nil {
			e.logger.Error("failed to audit artifact deletion failure",
				slog.String("record_id", record.ID.String()),
				slog.String("kind", string(failure.Kind)),
				slog.Any("error", err),
			)
		}
	}

	return count, failures
}
