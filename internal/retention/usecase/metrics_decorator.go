package usecase

import (
	"context"
	"time"

	"github.com/scenespin/voiceconsent/internal/metrics"
	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
)

// retentionUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type retentionUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a retention UseCase with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &retentionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Run records metrics for retention job runs. A run that completes with
// per-record failures still counts as "success" at this level; the failure
// state it reports is part of the summary, not a job error.
func (r *retentionUseCaseWithMetrics) Run(
	ctx context.Context,
	now time.Time,
) (*retentionDomain.JobSummary, error) {
	start := time.Now()
	summary, err := r.next.Run(ctx, now)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "retention", "retention_job_run", status)
	r.metrics.RecordDuration(ctx, "retention", "retention_job_run", time.Since(start), status)
	if summary != nil {
		r.metrics.RecordRetentionOutcome(
			ctx,
			summary.RecordsDeleted,
			summary.ArtifactsDeleted,
			int64(len(summary.Failures)),
		)
	}

	return summary, err
}

// DryRun records metrics for dry-run scans.
func (r *retentionUseCaseWithMetrics) DryRun(
	ctx context.Context,
	now time.Time,
) (*retentionDomain.JobSummary, error) {
	start := time.Now()
	summary, err := r.next.DryRun(ctx, now)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "retention", "retention_job_dry_run", status)
	r.metrics.RecordDuration(ctx, "retention", "retention_job_dry_run", time.Since(start), status)

	return summary, err
}
