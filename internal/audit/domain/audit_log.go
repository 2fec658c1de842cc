// Package domain defines the append-only audit log model.
//
// Audit entries are the durable proof of compliance: they are written once and
// never updated or removed. The public contract deliberately has no update or
// delete operation. Entries reference consent records by id only, so purging
// consent data for unrelated reasons can never cascade into the log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action is the closed set of compliance-relevant actions recorded in the log.
// Never a free-form string, so the trail stays queryable and its meaning is
// stable across time.
type Action string

const (
	// ActionConsentGranted records the creation of a consent record.
	ActionConsentGranted Action = "consent_granted"
	// ActionAutoDeletedRetention records an automatic soft-delete after the
	// retention deadline elapsed.
	ActionAutoDeletedRetention Action = "auto_deleted_retention"
	// ActionVoiceProfileDeleted records the removal of a cloned voice model at
	// the provider.
	ActionVoiceProfileDeleted Action = "voice_profile_deleted"
	// ActionArtifactDeleteFailed records a dependent artifact that could not
	// be removed during cascade.
	ActionArtifactDeleteFailed Action = "artifact_delete_failed"
)

// Valid reports whether the action is part of the closed enumeration.
func (a Action) Valid() bool {
	switch a {
	case ActionConsentGranted, ActionAutoDeletedRetention, ActionVoiceProfileDeleted, ActionArtifactDeleteFailed:
		return true
	}
	return false
}

// SystemActor is how the automated retention job is rendered as an actor.
// It is persisted as a NULL performed_by column; the distinction between a
// human override and automatic enforcement matters legally.
const SystemActor = "system"

// AuditLogEntry is a single write-once entry in the audit log.
type AuditLogEntry struct {
	ID        uuid.UUID
	ConsentID uuid.UUID
	Action    Action
	// PerformedBy identifies the acting operator; nil means the system actor.
	PerformedBy *uuid.UUID
	// PerformedAt is captured at write time, never backdated.
	PerformedAt time.Time
	// Details is a structured payload with the facts needed to reconstruct why
	// the action happened (deadline that triggered it, original consent
	// timestamp, artifact counts).
	Details map[string]any
	// Signature is the HMAC-SHA256 over the canonical entry encoding.
	// Nil for entries written before signing was enabled.
	Signature []byte
}

// Actor renders the performing identity, substituting the system sentinel for
// a nil PerformedBy.
func (e *AuditLogEntry) Actor() string {
	if e.PerformedBy == nil {
		return SystemActor
	}
	return e.PerformedBy.String()
}

// Signed reports whether the entry carries a signature.
func (e *AuditLogEntry) Signed() bool {
	return len(e.Signature) > 0
}
