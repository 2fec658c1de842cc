// Package service provides domain services for the audit log, most notably
// cryptographic signing that makes the trail tamper-evident.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
)

// Signer signs and verifies audit log entries.
type Signer interface {
	// Sign generates the signature for the entry content.
	Sign(entry *auditDomain.AuditLogEntry) ([]byte, error)
	// Verify checks the entry's stored signature against its content.
	// Returns ErrSignatureInvalid if the entry was tampered with.
	Verify(entry *auditDomain.AuditLogEntry) error
}

type hmacSigner struct {
	secret []byte
}

// NewHMACSigner creates an audit log signer using HKDF-SHA256 for key
// derivation from the configured secret and HMAC-SHA256 for signatures.
func NewHMACSigner(secret []byte) Signer {
	return &hmacSigner{secret: secret}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// configured secret. Info parameter is versioned for future algorithm changes.
func (s *hmacSigner) deriveSigningKey() ([]byte, error) {
	info := []byte("audit-log-signing-v1")
	hash := sha256.New
	hkdf := hkdf.New(hash, s.secret, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalizeEntry converts an audit entry to a canonical byte representation
// for signing. Format: id || consent_id || action || performed_by || details ||
// performed_at. Variable-length fields are length-prefixed to prevent ambiguity.
func (s *hmacSigner) canonicalizeEntry(entry *auditDomain.AuditLogEntry) ([]byte, error) {
	buf := make([]byte, 0, 512)

	// Append UUIDs (16 bytes each)
	buf = append(buf, entry.ID[:]...)
	buf = append(buf, entry.ConsentID[:]...)

	// Append action (length-prefixed)
	buf = appendLengthPrefixed(buf, []byte(string(entry.Action)))

	// Append actor; nil PerformedBy (the system actor) encodes as zero length
	if entry.PerformedBy != nil {
		buf = appendLengthPrefixed(buf, entry.PerformedBy[:])
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	// Append details JSON (length-prefixed, deterministic serialization)
	if entry.Details != nil {
		detailsBytes, err := json.Marshal(entry.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal details: %w", err)
		}
		buf = appendLengthPrefixed(buf, detailsBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	// Append timestamp (Unix nano for precision)
	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(entry.PerformedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates the HMAC-SHA256 signature for the audit entry.
// Returns a 32-byte signature or an error if signing fails.
func (s *hmacSigner) Sign(entry *auditDomain.AuditLogEntry) ([]byte, error) {
	signingKey, err := s.deriveSigningKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	canonical, err := s.canonicalizeEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize entry: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	signature := mac.Sum(nil)

	return signature, nil
}

// Verify checks if the audit entry signature is valid.
// Returns nil if valid, ErrSignatureInvalid if tampered or invalid.
func (s *hmacSigner) Verify(entry *auditDomain.AuditLogEntry) error {
	expectedSig, err := s.Sign(entry)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(expectedSig, entry.Signature) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}

// zero clears sensitive key material from memory.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
