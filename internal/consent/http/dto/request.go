// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/scenespin/voiceconsent/internal/validation"
)

// CreateConsentRequest contains the parameters for recording a new consent.
// performed_by is optional: an absent value attributes the grant to the
// system actor.
type CreateConsentRequest struct {
	SubjectID   string `json:"subject_id"`
	AgreedAt    string `json:"agreed_at"`
	PerformedBy string `json:"performed_by,omitempty"`
}

// Validate checks if the create consent request is valid.
func (r *CreateConsentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SubjectID,
			validation.Required,
			customValidation.UUID,
		),
		validation.Field(&r.AgreedAt,
			validation.Required,
			customValidation.RFC3339,
		),
		validation.Field(&r.PerformedBy,
			customValidation.UUID,
		),
	)
}
