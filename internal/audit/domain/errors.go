package domain

import (
	"github.com/scenespin/voiceconsent/internal/errors"
)

var (
	// ErrInvalidAction indicates an action outside the closed enumeration.
	ErrInvalidAction = errors.Wrap(errors.ErrInvalidInput, "invalid audit action")

	// ErrSignatureInvalid indicates an entry whose signature does not match its
	// content, meaning the entry was tampered with after being written.
	ErrSignatureInvalid = errors.New("audit log signature invalid")
)
