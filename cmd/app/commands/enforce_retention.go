package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
	retentionUseCase "github.com/scenespin/voiceconsent/internal/retention/usecase"
)

// RunEnforceRetention runs one retention enforcement pass from the command line.
// An empty now string means the current wall-clock time; dry-run reports what
// would happen without mutating anything. Per-record failures do not abort the
// run, but they do surface as a non-nil error after the summary is printed so
// schedulers observe a failing exit code.
func RunEnforceRetention(
	ctx context.Context,
	useCase retentionUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	nowStr string,
	dryRun bool,
	format string,
) error {
	now := time.Now().UTC()
	if nowStr != "" {
		parsed, err := time.Parse(time.RFC3339, nowStr)
		if err != nil {
			return fmt.Errorf("invalid now timestamp (expected RFC3339): %w", err)
		}
		now = parsed.UTC()
	}

	logger.Info("enforcing retention",
		slog.Time("now", now),
		slog.Bool("dry_run", dryRun),
	)

	var summary *retentionDomain.JobSummary
	var err error
	if dryRun {
		summary, err = useCase.DryRun(ctx, now)
	} else {
		summary, err = useCase.Run(ctx, now)
	}
	if err != nil {
		return fmt.Errorf("failed to enforce retention: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputSummaryJSON(writer, summary); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputSummaryText(writer, summary)
	}

	logger.Info("retention enforcement completed",
		slog.Int64("records_found", summary.RecordsFound),
		slog.Int64("records_deleted", summary.RecordsDeleted),
		slog.Int64("artifacts_deleted", summary.ArtifactsDeleted),
		slog.Int("failures", len(summary.Failures)),
		slog.Int("artifact_failures", len(summary.ArtifactFailures)),
		slog.Bool("dry_run", summary.DryRun),
	)

	if len(summary.Failures) > 0 {
		return fmt.Errorf("retention enforcement completed with %d record failure(s)", len(summary.Failures))
	}

	return nil
}

// outputSummaryText outputs the job summary in human-readable text format.
func outputSummaryText(writer io.Writer, summary *retentionDomain.JobSummary) {
	_, _ = fmt.Fprintf(writer, "Retention Enforcement Summary\n")
	_, _ = fmt.Fprintf(writer, "=============================\n\n")

	if summary.DryRun {
		_, _ = fmt.Fprintf(writer, "Mode: dry-run (no records were modified)\n\n")
	}

	_, _ = fmt.Fprintf(writer, "Records Found:     %d\n", summary.RecordsFound)
	_, _ = fmt.Fprintf(writer, "Records Deleted:   %d\n", summary.RecordsDeleted)
	_, _ = fmt.Fprintf(writer, "Artifacts Deleted: %d\n", summary.ArtifactsDeleted)
	_, _ = fmt.Fprintf(writer, "Record Failures:   %d\n", len(summary.Failures))
	_, _ = fmt.Fprintf(writer, "Artifact Failures: %d\n\n", len(summary.ArtifactFailures))

	if len(summary.Failures) > 0 {
		_, _ = fmt.Fprintf(writer, "Failed Records:\n")
		for _, failure := range summary.Failures {
			_, _ = fmt.Fprintf(writer, "  - %s: %s\n", failure.RecordID, failure.Reason)
		}
		_, _ = fmt.Fprintf(writer, "\n")
	}

	if len(summary.ArtifactFailures) > 0 {
		_, _ = fmt.Fprintf(writer, "Failed Artifacts:\n")
		for _, failure := range summary.ArtifactFailures {
			_, _ = fmt.Fprintf(
				writer,
				"  - record %s, %s: %s\n",
				failure.RecordID,
				failure.Kind,
				failure.Reason,
			)
		}
		_, _ = fmt.Fprintf(writer, "\n")
	}

	if summary.NeedsAttention {
		_, _ = fmt.Fprintf(writer, "Status: NEEDS ATTENTION\n")
	} else {
		_, _ = fmt.Fprintf(writer, "Status: OK\n")
	}
}

// outputSummaryJSON outputs the job summary in JSON format for machine consumption.
func outputSummaryJSON(writer io.Writer, summary *retentionDomain.JobSummary) error {
	jsonBytes, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
