// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
)

// AuditLogResponse represents an audit log entry in API responses.
// The performed_by field renders the system sentinel for automated actions.
type AuditLogResponse struct {
	ID          string         `json:"id"`
	ConsentID   string         `json:"consent_id"`
	Action      string         `json:"action"`
	PerformedBy string         `json:"performed_by"`
	PerformedAt time.Time      `json:"performed_at"`
	Details     map[string]any `json:"details,omitempty"`
	Signed      bool           `json:"signed"`
}

// ListAuditLogsResponse represents a paginated list of audit log entries.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogToResponse converts a domain audit log entry to an API response.
func MapAuditLogToResponse(entry *auditDomain.AuditLogEntry) AuditLogResponse {
	return AuditLogResponse{
		ID:          entry.ID.String(),
		ConsentID:   entry.ConsentID.String(),
		Action:      string(entry.Action),
		PerformedBy: entry.Actor(),
		PerformedAt: entry.PerformedAt,
		Details:     entry.Details,
		Signed:      entry.Signed(),
	}
}

// MapAuditLogsToListResponse converts a slice of domain entries to a list response.
func MapAuditLogsToListResponse(entries []*auditDomain.AuditLogEntry) ListAuditLogsResponse {
	data := make([]AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, MapAuditLogToResponse(entry))
	}

	return ListAuditLogsResponse{
		Data: data,
	}
}
