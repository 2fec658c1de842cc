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

// MySQLConsentRepository implements ConsentRecord persistence for MySQL.
// UUIDs are stored as 16-byte binary columns.
type MySQLConsentRepository struct {
	db *sql.DB
}

// Create inserts a new ConsentRecord into the MySQL database.
func (m *MySQLConsentRepository) Create(ctx context.Context, record *consentDomain.ConsentRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO consent_records (id, subject_id, agreed_at, retention_deadline, deleted_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID[:],
		record.SubjectID[:],
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
func (m *MySQLConsentRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*consentDomain.ConsentRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, subject_id, agreed_at, retention_deadline, deleted_at, created_at
			  FROM consent_records
			  WHERE id = ?`

	var record consentDomain.ConsentRecord
	var recordID, subjectID []byte
	err := querier.QueryRowContext(ctx, query, id[:]).Scan(
		&recordID,
		&subjectID,
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

	if record.ID, err = uuid.FromBytes(recordID); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse consent record id")
	}
	if record.SubjectID, err = uuid.FromBytes(subjectID); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse subject id")
	}

	return &record, nil
}

// FindDue retrieves records whose retention deadline has passed and that have
// not been deleted yet, oldest deadline first. Pure read; never mutates state.
func (m *MySQLConsentRepository) FindDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*consentDomain.ConsentRecord, error) {
	if now.IsZero() {
		return nil, apperrors.New("now timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, subject_id, agreed_at, retention_deadline, deleted_at, created_at
			  FROM consent_records
			  WHERE deleted_at IS NULL AND retention_deadline <= ?
			  ORDER BY retention_deadline ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find due consent records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*consentDomain.ConsentRecord, 0)
	for rows.Next() {
		var record consentDomain.ConsentRecord
		var recordID, subjectID []byte
		err := rows.Scan(
			&recordID,
			&subjectID,
			&record.AgreedAt,
			&record.RetentionDeadline,
			&record.DeletedAt,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan consent record")
		}

		if record.ID, err = uuid.FromBytes(recordID); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse consent record id")
		}
		if record.SubjectID, err = uuid.FromBytes(subjectID); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse subject id")
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate consent records")
	}

	return records, nil
}

// CountDue counts records due for enforcement without mutating anything.
func (m *MySQLConsentRepository) CountDue(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		return 0, apperrors.New("now timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM consent_records WHERE deleted_at IS NULL AND retention_deadline <= ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count due consent records")
	}

	return count, nil
}

// MarkDeleted sets deleted_at on the record if and only if it is still null.
// Returns alreadyDeleted=true when another enforcement won the race.
// Returns ErrConsentNotFound if no record with the given id exists.
func (m *MySQLConsentRepository) MarkDeleted(
	ctx context.Context,
	id uuid.UUID,
	deletedAt time.Time,
) (bool, error) {
	if deletedAt.IsZero() {
		return false, apperrors.New("deletedAt timestamp cannot be zero")
	}

	querier := database.GetTx(ctx, m.db)

	query := `UPDATE consent_records SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := querier.ExecContext(ctx, query, deletedAt, id[:])
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

	var existing sql.NullTime
	err = querier.QueryRowContext(
		ctx,
		`SELECT deleted_at FROM consent_records WHERE id = ?`,
		id[:],
	).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, consentDomain.ErrConsentNotFound
		}
		return false, apperrors.Wrap(err, "failed to check consent record deletion state")
	}

	return existing.Valid, nil
}

// NewMySQLConsentRepository creates a new MySQL consent repository.
func NewMySQLConsentRepository(db *sql.DB) *MySQLConsentRepository {
	return &MySQLConsentRepository{db: db}
}
