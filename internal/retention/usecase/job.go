package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/scenespin/voiceconsent/internal/errors"
	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
)

// JobConfig holds retention job configuration.
type JobConfig struct {
	// BatchSize bounds how many due records one run processes. Records left
	// over remain selectable and are picked up by the next run.
	BatchSize int

	// Concurrency bounds how many records are enforced in parallel. The
	// engine is correct at any value because enforcement is idempotent and
	// row-scoped; 1 gives strictly sequential processing in scan order.
	Concurrency int
}

// retentionJob implements UseCase by orchestrating one scan-and-enforce pass.
type retentionJob struct {
	config      JobConfig
	consentRepo ConsentRepository
	enforcer    Enforcer
	alerts      AlertEnqueuer
	logger      *slog.Logger
}

// NewRetentionJob creates a new retention job. alerts may be nil when no
// alert pipeline is configured.
func NewRetentionJob(
	config JobConfig,
	consentRepo ConsentRepository,
	enforcer Enforcer,
	alerts AlertEnqueuer,
	logger *slog.Logger,
) UseCase {
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &retentionJob{
		config:      config,
		consentRepo: consentRepo,
		enforcer:    enforcer,
		alerts:      alerts,
		logger:      logger,
	}
}

// Run scans once and enforces every due record independently. Only a scanner
// failure aborts the run; per-record outcomes are aggregated into the summary
// no matter how they went.
func (j *retentionJob) Run(ctx context.Context, now time.Time) (*retentionDomain.JobSummary, error) {
	if now.IsZero() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "run timestamp cannot be zero")
	}

	records, err := j.consentRepo.FindDue(ctx, now, j.config.BatchSize)
	if err != nil {
		return nil, apperrors.Wrap(err, "retention scan failed")
	}

	summary := &retentionDomain.JobSummary{
		RecordsFound: int64(len(records)),
		Timestamp:    now,
	}

	if j.logger != nil {
		j.logger.Info("retention job scan complete",
			slog.Int("records_found", len(records)),
			slog.Time("now", now),
		)
	}

	outcomes := make([]retentionDomain.EnforcementOutcome, len(records))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(j.config.Concurrency)
	for i, record := range records {
		group.Go(func() error {
			outcomes[i] = j.enforcer.Enforce(groupCtx, record, now)
			return nil
		})
	}
	// Enforcement never returns an error; Wait only orders the outcome writes.
	_ = group.Wait()

	for _, outcome := range outcomes {
		summary.Aggregate(outcome)
	}
	summary.Finalize()

	if summary.NeedsAttention {
		j.raiseAlert(ctx, summary)
	}

	if j.logger != nil {
		j.logger.Info("retention job run complete",
			slog.Int64("records_found", summary.RecordsFound),
			slog.Int64("records_deleted", summary.RecordsDeleted),
			slog.Int64("artifacts_deleted", summary.ArtifactsDeleted),
			slog.Int("failures", len(summary.Failures)),
			slog.Int("artifact_failures", len(summary.ArtifactFailures)),
			slog.Bool("needs_attention", summary.NeedsAttention),
		)
	}

	return summary, nil
}

// DryRun reports how many records Run would enforce at the supplied timestamp
// without mutating any state.
func (j *retentionJob) DryRun(ctx context.Context, now time.Time) (*retentionDomain.JobSummary, error) {
	if now.IsZero() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "run timestamp cannot be zero")
	}

	count, err := j.consentRepo.CountDue(ctx, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "retention scan failed")
	}

	return &retentionDomain.JobSummary{
		RecordsFound: count,
		DryRun:       true,
		Timestamp:    now,
	}, nil
}

// raiseAlert hands the summary to the alert pipeline. Enqueue failure is
// logged and swallowed: the run already produced a well-formed summary and
// the caller still sees the attention flag.
func (j *retentionJob) raiseAlert(ctx context.Context, summary *retentionDomain.JobSummary) {
	if j.alerts == nil {
		return
	}
	if err := j.alerts.EnqueueRetentionAlert(ctx, summary); err != nil && j.logger != nil {
		j.logger.Error("failed to enqueue retention alert", slog.Any("error", err))
	}
}
