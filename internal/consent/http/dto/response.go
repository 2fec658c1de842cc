package dto

import (
	"time"

	consentDomain "github.com/scenespin/voiceconsent/internal/consent/domain"
)

// ConsentResponse represents a consent record in API responses.
type ConsentResponse struct {
	ID                string     `json:"id"`
	SubjectID         string     `json:"subject_id"`
	AgreedAt          time.Time  `json:"agreed_at"`
	RetentionDeadline time.Time  `json:"retention_deadline"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// MapConsentToResponse converts a domain consent record to an API response.
func MapConsentToResponse(record *consentDomain.ConsentRecord) ConsentResponse {
	return ConsentResponse{
		ID:                record.ID.String(),
		SubjectID:         record.SubjectID.String(),
		AgreedAt:          record.AgreedAt,
		RetentionDeadline: record.RetentionDeadline,
		DeletedAt:         record.DeletedAt,
		CreatedAt:         record.CreatedAt,
	}
}
