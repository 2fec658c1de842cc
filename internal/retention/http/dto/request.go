// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/scenespin/voiceconsent/internal/validation"
)

// TriggerRetentionRequest contains the optional parameters for a retention run.
// An absent now means the current wall-clock time; dry_run reports what would
// happen without mutating anything.
type TriggerRetentionRequest struct {
	Now    string `json:"now,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// Validate checks if the trigger retention request is valid.
func (r *TriggerRetentionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Now,
			customValidation.RFC3339,
		),
	)
}
