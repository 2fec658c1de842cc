// Package domain defines the retention enforcement outcome and job summary models.
//
// Enforcement results are structured values, not errors: per-record and
// per-artifact problems are captured as typed fields so the orchestrator can
// aggregate them without unwinding the batch.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactKind identifies the category of a dependent artifact purged during
// retention enforcement.
type ArtifactKind string

const (
	// ArtifactKindVoiceSample is a stored voice recording in object storage.
	ArtifactKindVoiceSample ArtifactKind = "voice_sample"

	// ArtifactKindVoiceModel is a cloned voice model held by the external provider.
	ArtifactKindVoiceModel ArtifactKind = "voice_model"
)

// ArtifactFailure records one dependent artifact that could not be removed.
// Cascade failures never block the soft delete of the consent record itself;
// they are surfaced for operator follow-up instead.
type ArtifactFailure struct {
	Kind      ArtifactKind `json:"kind"`
	Reference string       `json:"reference,omitempty"`
	Reason    string       `json:"reason"`
}

// EnforcementOutcome is the structured result of enforcing one consent record.
// Exactly one of Succeeded or FailureReason is meaningful: a failed outcome
// persists no state change and leaves the record eligible for the next run.
type EnforcementOutcome struct {
	RecordID  uuid.UUID
	SubjectID uuid.UUID
	Succeeded bool

	// AlreadyDeleted marks the idempotency no-op: another run committed the
	// soft delete first, so nothing was written and no audit entry was added.
	AlreadyDeleted bool

	ArtifactsDeleted int64
	ArtifactFailures []ArtifactFailure

	// FailureReason is set when the soft delete or its audit entry could not
	// be committed. Empty on success.
	FailureReason string
}

// SuccessOutcome builds the outcome for a record whose soft delete committed
// in this run.
func SuccessOutcome(record, subject uuid.UUID, artifactsDeleted int64, failures []ArtifactFailure) EnforcementOutcome {
	return EnforcementOutcome{
		RecordID:         record,
		SubjectID:        subject,
		Succeeded:        true,
		ArtifactsDeleted: artifactsDeleted,
		ArtifactFailures: failures,
	}
}

// NoOpOutcome builds the outcome for a record that was already deleted when
// this run reached it.
func NoOpOutcome(record, subject uuid.UUID) EnforcementOutcome {
	return EnforcementOutcome{
		RecordID:       record,
		SubjectID:      subject,
		Succeeded:      true,
		AlreadyDeleted: true,
	}
}

// FailureOutcome builds the outcome for a record whose enforcement could not
// be committed.
func FailureOutcome(record, subject uuid.UUID, reason string) EnforcementOutcome {
	return EnforcementOutcome{
		RecordID:      record,
		SubjectID:     subject,
		FailureReason: reason,
	}
}

// RecordFailure identifies one record the job could not enforce and why.
type RecordFailure struct {
	RecordID uuid.UUID `json:"record_id"`
	Reason   string    `json:"reason"`
}

// RecordArtifactFailure ties an artifact failure to the record whose cascade
// produced it, for the job summary.
type RecordArtifactFailure struct {
	RecordID  uuid.UUID    `json:"record_id"`
	Kind      ArtifactKind `json:"kind"`
	Reference string       `json:"reference,omitempty"`
	Reason    string       `json:"reason"`
}

// JobSummary aggregates the outcomes of one retention job run. It is always
// well-formed, including on partial failure, so downstream alerting has a
// single shape to branch on.
type JobSummary struct {
	RecordsFound     int64                   `json:"records_found"`
	RecordsDeleted   int64                   `json:"records_deleted"`
	ArtifactsDeleted int64                   `json:"artifacts_deleted"`
	Failures         []RecordFailure         `json:"failures"`
	ArtifactFailures []RecordArtifactFailure `json:"artifact_failures"`
	NeedsAttention   bool                    `json:"needs_attention"`
	DryRun           bool                    `json:"dry_run,omitempty"`
	Timestamp        time.Time               `json:"timestamp"`
}

// Aggregate folds one enforcement outcome into the summary.
func (s *JobSummary) Aggregate(outcome EnforcementOutcome) {
	if !outcome.Succeeded {
		s.Failures = append(s.Failures, RecordFailure{
			RecordID: outcome.RecordID,
			Reason:   outcome.FailureReason,
		})
		return
	}

	if !outcome.AlreadyDeleted {
		s.RecordsDeleted++
	}
	s.ArtifactsDeleted += outcome.ArtifactsDeleted

	for _, failure := range outcome.ArtifactFailures {
		s.ArtifactFailures = append(s.ArtifactFailures, RecordArtifactFailure{
			RecordID:  outcome.RecordID,
			Kind:      failure.Kind,
			Reference: failure.Reference,
			Reason:    failure.Reason,
		})
	}
}

// Finalize computes the attention flag once all outcomes are aggregated.
// Per-record failures and cascade failures both warrant operator attention:
// the former leave records past their legal deadline, the latter leave
// downstream copies behind.
func (s *JobSummary) Finalize() {
	s.NeedsAttention = len(s.Failures) > 0 || len(s.ArtifactFailures) > 0
}
