package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics defines the interface for recording business operation metrics.
// Implementations track operation counts and durations for observability across
// different business domains (consent, retention, audit, alert).
type BusinessMetrics interface {
	// RecordOperation records a business operation with its status.
	// Domain examples: "consent", "retention", "audit"
	// Operation examples: "consent_create", "retention_job_run", "audit_verify"
	// Status examples: "success", "error"
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records the duration of a business operation with its status.
	// Duration is recorded in seconds as a histogram for percentile calculations.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordRetentionOutcome records the counts one retention run produced:
	// soft-deleted records, purged artifacts, and per-record failures.
	RecordRetentionOutcome(ctx context.Context, recordsDeleted, artifactsDeleted, recordFailures int64)
}

// businessMetrics implements BusinessMetrics using OpenTelemetry metrics.
type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	deletedCounter   metric.Int64Counter
	artifactCounter  metric.Int64Counter
	failureCounter   metric.Int64Counter
}

// NewBusinessMetrics creates a new BusinessMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names (e.g., "voiceconsent").
// Returns error if meters cannot be initialized.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	// Create counter for total operations
	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	// Create histogram for operation durations
	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of business operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	deletedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_records_deleted_total", namespace),
		metric.WithDescription("Total number of consent records soft-deleted by retention enforcement"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create records deleted counter: %w", err)
	}

	artifactCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_artifacts_deleted_total", namespace),
		metric.WithDescription("Total number of dependent artifacts purged by retention enforcement"),
		metric.WithUnit("{artifact}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifacts deleted counter: %w", err)
	}

	failureCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_record_failures_total", namespace),
		metric.WithDescription("Total number of consent records that failed retention enforcement"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create record failures counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		deletedCounter:   deletedCounter,
		artifactCounter:  artifactCounter,
		failureCounter:   failureCounter,
	}, nil
}

// RecordOperation increments the operation counter with domain, operation, and status labels.
func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordDuration records the operation duration in seconds with domain, operation, and status labels.
func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordRetentionOutcome adds the run's counts to the retention counters.
func (b *businessMetrics) RecordRetentionOutcome(
	ctx context.Context,
	recordsDeleted, artifactsDeleted, recordFailures int64,
) {
	if recordsDeleted > 0 {
		b.deletedCounter.Add(ctx, recordsDeleted)
	}
	if artifactsDeleted > 0 {
		b.artifactCounter.Add(ctx, artifactsDeleted)
	}
	if recordFailures > 0 {
		b.failureCounter.Add(ctx, recordFailures)
	}
}

// NoOpBusinessMetrics is a no-op implementation of BusinessMetrics for when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	// No-op
}

// RecordRetentionOutcome does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordRetentionOutcome(
	ctx context.Context,
	recordsDeleted, artifactsDeleted, recordFailures int64,
) {
	// No-op
}

// RecordDuration does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	// No-op
}
