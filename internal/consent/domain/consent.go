// Package domain defines the consent record model and its retention lifecycle.
//
// A consent record governs a subject's biometric voice data. The retention
// deadline is fixed once at consent time and is never recomputed; expiry is a
// computed predicate over the deadline, not a stored state.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConsentRecord represents a subject's agreement to voice cloning, together
// with the legal window the platform may retain the associated biometric data.
type ConsentRecord struct {
	ID        uuid.UUID // Unique identifier (UUIDv7)
	SubjectID uuid.UUID // The person whose voice data is governed
	AgreedAt  time.Time // When consent was granted
	// RetentionDeadline is AgreedAt plus the configured retention period,
	// computed once when the record is created.
	RetentionDeadline time.Time
	// DeletedAt is set exactly once, on first successful enforcement.
	// A nil value means the record is active.
	DeletedAt *time.Time
	CreatedAt time.Time
}

// NewConsentRecord creates an active consent record with its retention
// deadline derived from the agreement time and the retention period in years.
func NewConsentRecord(subjectID uuid.UUID, agreedAt time.Time, retentionYears int) *ConsentRecord {
	agreedAt = agreedAt.UTC()
	return &ConsentRecord{
		ID:                uuid.Must(uuid.NewV7()),
		SubjectID:         subjectID,
		AgreedAt:          agreedAt,
		RetentionDeadline: agreedAt.AddDate(retentionYears, 0, 0),
		CreatedAt:         time.Now().UTC(),
	}
}

// Deleted reports whether the record has already been soft-deleted.
func (c *ConsentRecord) Deleted() bool {
	return c.DeletedAt != nil
}

// DueForEnforcement reports whether the record must be deleted at the given
// time: the retention deadline has passed and no deletion happened yet.
func (c *ConsentRecord) DueForEnforcement(now time.Time) bool {
	return c.DeletedAt == nil && !c.RetentionDeadline.After(now)
}
