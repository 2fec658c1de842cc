// Package repository implements consent record persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	consentDomain "github.com/scenespin/voiceconsent/internal/consent/domain"
	"github.com/scenespin/voiceconsent/internal/database"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
)

// PostgreSQLConsentRepository implements ConsentRecord persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLConsentRepository struct {
	db *sql.DB
}

// Create inserts a new ConsentRecord into the PostgreSQL database.
// The retention deadline is stored as computed at consent time and never recomputed.
func (p *PostgreSQLConsentRepository) Create(ctx context.Context, record *consentDomain.ConsentRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO consent_records (id, subject_id, agreed_at, retention_deadline, deleted_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.SubjectID,
		record.AgreedAt,
		record.RetentionDeadline,
		record.DeletedAt,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create consent record")
	}

	return nil
}

// GetByID retrieves a consent record by its unique identifier.
// Returns ErrConsentNotFound if the record does not exist.
func (p *PostgreSQLConsentRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*consentDomain.ConsentRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, agreed_at, retention_deadline, deleted_at, created_at
			  FROM consent_records
			  WHERE id = $1`

	var record consentDomain.ConsentRecord
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.SubjectID,
		&record.AgreedAt,
		&record.RetentionDeadline,
		&record.DeletedAt,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, consentDomain.ErrConsentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get consent record")
	}

	return &record, nil
}

// FindDue retrieves records whose retention deadline has passed and that have
// not been deleted yet, oldest deadline first so the most overdue records are
// processed first under a bounded batch. Pure read; never mutates state.
func (p *PostgreSQLConsentRepository) FindDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*consentDomain.ConsentRecord, error) {
	if now.IsZero() {
		return nil, apperrors.New("now timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, agreed_at, retention_deadline, deleted_at, created_at
			  FROM consent_records
			  WHERE deleted_at IS NULL AND retention_deadline <= $1
			  ORDER BY retention_deadline ASC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find due consent records")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	records := make([]*consentDomain.ConsentRecord, 0)
	for rows.Next() {
		var record consentDomain.ConsentRecord
		err := rows.Scan(
			&record.ID,
			&record.SubjectID,
			&record.AgreedAt,
			&record.RetentionDeadline,
			&record.DeletedAt,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan consent record")
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate consent records")
	}

	return records, nil
}

// CountDue counts records due for enforcement without mutating anything.
// Used by dry-run mode.
func (p *PostgreSQLConsentRepository) CountDue(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		return 0, apperrors.New("now timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM consent_records WHERE deleted_at IS NULL AND retention_deadline <= $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count due consent records")
	}

	return count, nil
}

// MarkDeleted sets deleted_at on the record if and only if it is still null.
// Returns alreadyDeleted=true when another enforcement won the race, which the
// caller treats as a no-op success. Returns ErrConsentNotFound if no record
// with the given id exists. Uses transaction support via database.GetTx().
func (p *PostgreSQLConsentRepository) MarkDeleted(
	ctx context.Context,
	id uuid.UUID,
	deletedAt time.Time,
) (bool, error) {
	if deletedAt.IsZero() {
		return false, apperrors.New("deletedAt timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, p.db)

	query := `UPDATE consent_records SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := querier.ExecContext(ctx, query, deletedAt, id)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to mark consent record deleted")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}

	if rowsAffected > 0 {
		return false, nil
	}

	// Conditional write matched nothing: distinguish a lost race from a missing record.
	var existing sql.NullTime
	err = querier.QueryRowContext(
		ctx,
		`SELECT deleted_at FROM consent_records WHERE id = $1`,
		id,
	).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, consentDomain.ErrConsentNotFound
		}
		return false, apperrors.Wrap(err, "failed to check consent record deletion state")
	}

	return existing.Valid, nil
}

// NewPostgreSQLConsentRepository creates a new PostgreSQL consent repository.
func NewPostgreSQLConsentRepository(db *sql.DB) *PostgreSQLConsentRepository {
	return &PostgreSQLConsentRepository{db: db}
}
