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

// MySQLAuditLogRepository implements append-only AuditLogEntry persistence for
// MySQL. UUIDs are stored as 16-byte binary columns.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// Create inserts a new AuditLogEntry. Handles nil details and nil actor as
// database NULL.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, entry *auditDomain.AuditLogEntry) error {
	querier := database.GetTx(ctx, m.db)

	var detailsJSON []byte
	var err error

	if entry.Details != nil {
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit entry details")
		}
	}

	var performedBy []byte
	if entry.PerformedBy != nil {
		performedBy = entry.PerformedBy[:]
	}

	query := `INSERT INTO audit_log_entries (id, consent_id, action, performed_by, performed_at, details, signature)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID[:],
		entry.ConsentID[:],
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
// boundaries inclusive).
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	performedAtFrom, performedAtTo *time.Time,
) ([]*auditDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, m.db)

	// Build query with optional time filters
	query := `SELECT id, consent_id, action, performed_by, performed_at, details, signature
			  FROM audit_log_entries
			  WHERE 1=1`
	args := []any{}

	if performedAtFrom != nil {
		query += ` AND performed_at >= ?`
		args = append(args, *performedAtFrom)
	}
	if performedAtTo != nil {
		query += ` AND performed_at <= ?`
		args = append(args, *performedAtTo)
	}

	query += ` ORDER BY performed_at ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.AuditLogEntry, 0)
	for rows.Next() {
		entry, err := scanEntryMySQL(rows)
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

// ListByConsentID retrieves every entry concerning one consent record, oldest first.
func (m *MySQLAuditLogRepository) ListByConsentID(
	ctx context.Context,
	consentID uuid.UUID,
) ([]*auditDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, consent_id, action, performed_by, performed_at, details, signature
			  FROM audit_log_entries
			  WHERE consent_id = ?
			  ORDER BY performed_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, consentID[:])
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries by consent")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.AuditLogEntry, 0)
	for rows.Next() {
		entry, err := scanEntryMySQL(rows)
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

// scanEntryMySQL scans one audit entry row, converting binary UUID columns.
func scanEntryMySQL(rows *sql.Rows) (*auditDomain.AuditLogEntry, error) {
	var entry auditDomain.AuditLogEntry
	var detailsJSON []byte
	var action string
	var idBinary, consentIDBinary, performedByBinary []byte

	err := rows.Scan(
		&idBinary,
		&consentIDBinary,
		&action,
		&performedByBinary,
		&entry.PerformedAt,
		&detailsJSON,
		&entry.Signature,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit log entry")
	}

	entry.Action = auditDomain.Action(action)

	if entry.ID, err = uuid.FromBytes(idBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse audit entry id")
	}
	if entry.ConsentID, err = uuid.FromBytes(consentIDBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse consent id")
	}

	if performedByBinary != nil {
		actor, err := uuid.FromBytes(performedByBinary)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse actor id")
		}
		entry.PerformedBy = &actor
	}

	if detailsJSON != nil {
		if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit entry details")
		}
	}

	return &entry, nil
}

// NewMySQLAuditLogRepository creates a new MySQL audit log repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}
