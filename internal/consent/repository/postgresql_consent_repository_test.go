package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consentDomain "github.com/scenespin/voiceconsent/internal/consent/domain"
	consentUsecase "github.com/scenespin/voiceconsent/internal/consent/usecase"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
	retentionUsecase "github.com/scenespin/voiceconsent/internal/retention/usecase"
)

// Both drivers must serve the consent-module port and the retention
// engine's scan/mark port from the same repository.
var (
	_ consentUsecase.ConsentRepository   = (*PostgreSQLConsentRepository)(nil)
	_ retentionUsecase.ConsentRepository = (*PostgreSQLConsentRepository)(nil)
	_ consentUsecase.ConsentRepository   = (*MySQLConsentRepository)(nil)
	_ retentionUsecase.ConsentRepository = (*MySQLConsentRepository)(nil)
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestRecord() *consentDomain.ConsentRecord {
	agreedAt := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	return &consentDomain.ConsentRecord{
		ID:                uuid.Must(uuid.NewV7()),
		SubjectID:         uuid.Must(uuid.NewV7()),
		AgreedAt:          agreedAt,
		RetentionDeadline: agreedAt.AddDate(3, 0, 0),
		CreatedAt:         agreedAt,
	}
}

func consentColumns() []string {
	return []string{"id", "subject_id", "agreed_at", "retention_deadline", "deleted_at", "created_at"}
}

func TestPostgreSQLConsentRepository_Create(t *testing.T) {
	t.Run("Success_CreateRecord", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)
		record := newTestRecord()

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO consent_records`)).
			WithArgs(
				record.ID,
				record.SubjectID,
				record.AgreedAt,
				record.RetentionDeadline,
				record.DeletedAt,
				record.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), record)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DatabaseFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)
		record := newTestRecord()

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO consent_records`)).
			WillReturnError(assert.AnError)

		err := repo.Create(context.Background(), record)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create consent record")
	})
}

func TestPostgreSQLConsentRepository_GetByID(t *testing.T) {
	t.Run("Success_GetRecord", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)
		record := newTestRecord()

		rows := sqlmock.NewRows(consentColumns()).
			AddRow(record.ID, record.SubjectID, record.AgreedAt, record.RetentionDeadline, nil, record.CreatedAt)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, subject_id, agreed_at, retention_deadline, deleted_at, created_at`)).
			WithArgs(record.ID).
			WillReturnRows(rows)

		got, err := repo.GetByID(context.Background(), record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, record.SubjectID, got.SubjectID)
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, subject_id`)).
			WillReturnError(sql.ErrNoRows)

		got, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV7()))
		assert.Nil(t, got)
		assert.ErrorIs(t, err, consentDomain.ErrConsentNotFound)
	})
}

func TestPostgreSQLConsentRepository_FindDue(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Success_ReturnsDueRecords", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)
		first := newTestRecord()
		second := newTestRecord()

		rows := sqlmock.NewRows(consentColumns()).
			AddRow(first.ID, first.SubjectID, first.AgreedAt, first.RetentionDeadline, nil, first.CreatedAt).
			AddRow(second.ID, second.SubjectID, second.AgreedAt, second.RetentionDeadline, nil, second.CreatedAt)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE deleted_at IS NULL AND retention_deadline <= $1`)).
			WithArgs(now, 500).
			WillReturnRows(rows)

		records, err := repo.FindDue(context.Background(), now, 500)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, first.ID, records[0].ID)
		assert.Equal(t, second.ID, records[1].ID)
	})

	t.Run("Success_EmptyResult", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE deleted_at IS NULL`)).
			WillReturnRows(sqlmock.NewRows(consentColumns()))

		records, err := repo.FindDue(context.Background(), now, 500)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("Error_ZeroTimestamp", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)

		records, err := repo.FindDue(context.Background(), time.Time{}, 500)
		assert.Nil(t, records)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "now timestamp cannot be zero")
	})

	t.Run("Error_QueryFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE deleted_at IS NULL`)).
			WillReturnError(assert.AnError)

		records, err := repo.FindDue(context.Background(), now, 500)
		assert.Nil(t, records)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find due consent records")
	})
}

func TestPostgreSQLConsentRepository_CountDue(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Success_CountDue", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM consent_records`)).
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		count, err := repo.CountDue(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("Error_ZeroTimestamp", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)

		count, err := repo.CountDue(context.Background(), time.Time{})
		assert.Error(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestPostgreSQLConsentRepository_MarkDeleted(t *testing.T) {
	deletedAt := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Success_MarksRecordDeleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)
		id := uuid.Must(uuid.NewV7())

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE consent_records SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`)).
			WithArgs(deletedAt, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		alreadyDeleted, err := repo.MarkDeleted(context.Background(), id, deletedAt)
		require.NoError(t, err)
		assert.False(t, alreadyDeleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_AlreadyDeletedIsNoOp", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)
		id := uuid.Must(uuid.NewV7())
		priorDeletion := deletedAt.Add(-24 * time.Hour)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE consent_records`)).
			WithArgs(deletedAt, id).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT deleted_at FROM consent_records WHERE id = $1`)).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"deleted_at"}).AddRow(priorDeletion))

		alreadyDeleted, err := repo.MarkDeleted(context.Background(), id, deletedAt)
		require.NoError(t, err)
		assert.True(t, alreadyDeleted)
	})

	t.Run("Error_RecordNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)
		id := uuid.Must(uuid.NewV7())

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE consent_records`)).
			WithArgs(deletedAt, id).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT deleted_at FROM consent_records`)).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.MarkDeleted(context.Background(), id, deletedAt)
		assert.ErrorIs(t, err, consentDomain.ErrConsentNotFound)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Error_ZeroTimestamp", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)

		_, err := repo.MarkDeleted(context.Background(), uuid.Must(uuid.NewV7()), time.Time{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "deletedAt timestamp cannot be zero")
	})

	t.Run("Error_UpdateFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLConsentRepository(db)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE consent_records`)).
			WillReturnError(assert.AnError)

		_, err := repo.MarkDeleted(context.Background(), uuid.Must(uuid.NewV7()), deletedAt)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mark consent record deleted")
	})
}
