package domain

import (
	"github.com/scenespin/voiceconsent/internal/errors"
)

var (
	// ErrConsentNotFound indicates the consent record does not exist.
	ErrConsentNotFound = errors.Wrap(errors.ErrNotFound, "consent record not found")

	// ErrConsentAlreadyDeleted indicates the record was soft-deleted before this operation.
	ErrConsentAlreadyDeleted = errors.Wrap(errors.ErrConflict, "consent record already deleted")
)
