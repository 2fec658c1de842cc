package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/scenespin/voiceconsent/internal/audit/domain"
	consentDomain "github.com/scenespin/voiceconsent/internal/consent/domain"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// mockConsentRepository is a mock implementation of ConsentRepository
type mockConsentRepository struct {
	mock.Mock
}

func (m *mockConsentRepository) Create(ctx context.Context, record *consentDomain.ConsentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockConsentRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*consentDomain.ConsentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consentDomain.ConsentRecord), args.Error(1)
}

// mockAuditAppender is a mock implementation of AuditAppender
type mockAuditAppender struct {
	mock.Mock
}

func (m *mockAuditAppender) Append(
	ctx context.Context,
	consentID uuid.UUID,
	action auditDomain.Action,
	performedBy *uuid.UUID,
	performedAt time.Time,
	details map[string]any,
) error {
	args := m.Called(ctx, consentID, action, performedBy, performedAt, details)
	return args.Error(0)
}

func TestConsentUseCase_Create(t *testing.T) {
	ctx := context.Background()
	agreedAt := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Success_CreatesRecordWithDeadlineAndAuditEntry", func(t *testing.T) {
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		txManager := &MockTxManager{}
		subjectID := uuid.Must(uuid.NewV7())
		actorID := uuid.Must(uuid.NewV7())

		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()

		var created *consentDomain.ConsentRecord
		consentRepo.On("Create", ctx, mock.AnythingOfType("*domain.ConsentRecord")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*consentDomain.ConsentRecord)
			}).
			Return(nil).
			Once()

		var details map[string]any
		auditLog.On("Append", ctx, mock.AnythingOfType("uuid.UUID"), auditDomain.ActionConsentGranted,
			&actorID, mock.AnythingOfType("time.Time"), mock.Anything).
			Run(func(args mock.Arguments) {
				details = args.Get(5).(map[string]any)
			}).
			Return(nil).
			Once()

		uc := NewConsentUseCase(3, consentRepo, auditLog, txManager, nil)

		record, err := uc.Create(ctx, subjectID, agreedAt, &actorID)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Same(t, created, record)
		assert.Equal(t, subjectID, record.SubjectID)
		assert.Equal(t, agreedAt, record.AgreedAt)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), record.RetentionDeadline)
		assert.Nil(t, record.DeletedAt)

		require.NotNil(t, details)
		assert.Equal(t, subjectID.String(), details["subject_id"])
		assert.Equal(t, "2025-01-01T00:00:00Z", details["retention_deadline"])
	})

	t.Run("Error_EmptySubjectID", func(t *testing.T) {
		uc := NewConsentUseCase(3, &mockConsentRepository{}, &mockAuditAppender{}, &MockTxManager{}, nil)

		record, err := uc.Create(ctx, uuid.Nil, agreedAt, nil)
		assert.Nil(t, record)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_ZeroAgreedAt", func(t *testing.T) {
		uc := NewConsentUseCase(3, &mockConsentRepository{}, &mockAuditAppender{}, &MockTxManager{}, nil)

		record, err := uc.Create(ctx, uuid.Must(uuid.NewV7()), time.Time{}, nil)
		assert.Nil(t, record)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_RepositoryFailureRollsBackAudit", func(t *testing.T) {
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		txManager := &MockTxManager{}

		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("Create", ctx, mock.AnythingOfType("*domain.ConsentRecord")).
			Return(errors.New("insert failed")).
			Once()

		uc := NewConsentUseCase(3, consentRepo, auditLog, txManager, nil)

		record, err := uc.Create(ctx, uuid.Must(uuid.NewV7()), agreedAt, nil)
		assert.Nil(t, record)
		assert.Error(t, err)
		auditLog.AssertNotCalled(t, "Append")
	})

	t.Run("Error_AuditAppendFailure", func(t *testing.T) {
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		txManager := &MockTxManager{}

		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("Create", ctx, mock.AnythingOfType("*domain.ConsentRecord")).
			Return(nil).
			Once()
		auditLog.On("Append", ctx, mock.AnythingOfType("uuid.UUID"), auditDomain.ActionConsentGranted,
			(*uuid.UUID)(nil), mock.AnythingOfType("time.Time"), mock.Anything).
			Return(errors.New("audit store unavailable")).
			Once()

		uc := NewConsentUseCase(3, consentRepo, auditLog, txManager, nil)

		record, err := uc.Create(ctx, uuid.Must(uuid.NewV7()), agreedAt, nil)
		assert.Nil(t, record)
		assert.Error(t, err)
	})
}

func TestConsentUseCase_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ReturnsRecord", func(t *testing.T) {
		consentRepo := &mockConsentRepository{}
		expected := consentDomain.NewConsentRecord(uuid.Must(uuid.NewV7()), time.Now(), 3)
		consentRepo.On("GetByID", ctx, expected.ID).
			Return(expected, nil).
			Once()

		uc := NewConsentUseCase(3, consentRepo, &mockAuditAppender{}, &MockTxManager{}, nil)

		record, err := uc.Get(ctx, expected.ID)
		require.NoError(t, err)
		assert.Same(t, expected, record)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		consentRepo := &mockConsentRepository{}
		id := uuid.Must(uuid.NewV7())
		consentRepo.On("GetByID", ctx, id).
			Return(nil, consentDomain.ErrConsentNotFound).
			Once()

		uc := NewConsentUseCase(3, consentRepo, &mockAuditAppender{}, &MockTxManager{}, nil)

		record, err := uc.Get(ctx, id)
		assert.Nil(t, record)
		assert.ErrorIs(t, err, consentDomain.ErrConsentNotFound)
	})
}
