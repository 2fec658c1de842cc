// Package repository implements audit log persistence for PostgreSQL and MySQL.
//
// The repositories expose Create and List only. There is deliberately no
// update or delete operation: the log is append-only and entries must remain
// reconstructible even if consent data is later purged for unrelated reasons.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
	"github.com/scenespin/voiceconsent/internal/database"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
)

// PostgreSQLAuditLogRepository implements append-only AuditLogEntry persistence
// for PostgreSQL. Uses native UUID types with transaction support via
// database.GetTx().
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// Create inserts a new AuditLogEntry. Handles nil details as database NULL.
// Returns an error if details marshaling or database insertion fails.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, entry *auditDomain.AuditLogEntry) error {
	querier := database.GetTx(ctx, p.db)

	var detailsJSON []byte
	var err error

	// Handle nil details as NULL
	if entry.Details != nil {
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit entry details")
		}
	}

	performedBy := uuid.NullUUID{}
	if entry.PerformedBy != nil {
		performedBy = uuid.NullUUID{UUID: *entry.PerformedBy, Valid: true}
	}

	query := `INSERT INTO audit_log_entries (id, consent_id, action, performed_by, performed_at, details, signature)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.ConsentID,
		string(entry.Action),
		performedBy,
		entry.PerformedAt,
		detailsJSON,
		entry.Signature,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log entry")
	}

	return nil
}

// List retrieves audit entries ordered by performed_at ascending with
// pagination and optional time-based filtering (nil means no filter, both
// boundaries inclusive). All timestamps are expected in UTC. Returns an empty
// slice if no entries match.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	performedAtFrom, performedAtTo *time.Time,
) ([]*auditDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, consent_id, action, performed_by, performed_at, details, signature
			  FROM audit_log_entries
			  WHERE ($1::timestamptz IS NULL OR performed_at >= $1)
			    AND ($2::timestamptz IS NULL OR performed_at <= $2)
			  ORDER BY performed_at ASC, id ASC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, performedAtFrom, performedAtTo, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	entries := make([]*auditDomain.AuditLogEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit log entries")
	}

	return entries, nil
}

// ListByConsentID retrieves every entry concerning one consent record, oldest
// first, reconstructing that record's full compliance history.
func (p *PostgreSQLAuditLogRepository) ListByConsentID(
	ctx context.Context,
	consentID uuid.UUID,
) ([]*auditDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, consent_id, action, performed_by, performed_at, details, signature
			  FROM audit_log_entries
			  WHERE consent_id = $1
			  ORDER BY performed_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, consentID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries by consent")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.AuditLogEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit log entries")
	}

	return entries, nil
}

// scanEntry scans one audit entry row, handling NULL actor and details.
func scanEntry(rows *sql.Rows) (*auditDomain.AuditLogEntry, error) {
	var entry auditDomain.AuditLogEntry
	var detailsJSON []byte
	var action string
	var performedBy uuid.NullUUID

	err := rows.Scan(
		&entry.ID,
		&entry.ConsentID,
		&action,
		&performedBy,
		&entry.PerformedAt,
		&detailsJSON,
		&entry.Signature,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit log entry")
	}

	entry.Action = auditDomain.Action(action)

	if performedBy.Valid {
		actor := performedBy.UUID
		entry.PerformedBy = &actor
	}

	// Unmarshal details if not NULL
	if detailsJSON != nil {
		if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit entry details")
		}
	}

	return &entry, nil
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL audit log repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}
