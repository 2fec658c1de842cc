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
	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
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

func (m *mockConsentRepository) FindDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*consentDomain.ConsentRecord, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*consentDomain.ConsentRecord), args.Error(1)
}

func (m *mockConsentRepository) CountDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockConsentRepository) MarkDeleted(
	ctx context.Context,
	id uuid.UUID,
	deletedAt time.Time,
) (bool, error) {
	args := m.Called(ctx, id, deletedAt)
	return args.Bool(0), args.Error(1)
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

// mockDeletionGateway is a mock implementation of DeletionGateway
type mockDeletionGateway struct {
	mock.Mock
}

func (m *mockDeletionGateway) DeleteDependentArtifacts(
	ctx context.Context,
	subjectID uuid.UUID,
) (int64, []retentionDomain.ArtifactFailure) {
	args := m.Called(ctx, subjectID)
	var failures []retentionDomain.ArtifactFailure
	if args.Get(1) != nil {
		failures = args.Get(1).([]retentionDomain.ArtifactFailure)
	}
	return args.Get(0).(int64), failures
}

func dueRecord(now time.Time) *consentDomain.ConsentRecord {
	agreedAt := now.AddDate(-3, 0, -1)
	return &consentDomain.ConsentRecord{
		ID:                uuid.Must(uuid.NewV7()),
		SubjectID:         uuid.Must(uuid.NewV7()),
		AgreedAt:          agreedAt,
		RetentionDeadline: agreedAt.AddDate(3, 0, 0),
		CreatedAt:         agreedAt,
	}
}

func TestRetentionEnforcer_Enforce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Success_DeletesRecordAndAppendsSingleAuditEntry", func(t *testing.T) {
		record := dueRecord(now)
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		gateway := &mockDeletionGateway{}
		txManager := &MockTxManager{}

		gateway.On("DeleteDependentArtifacts", ctx, record.SubjectID).
			Return(int64(2), nil).
			Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("MarkDeleted", ctx, record.ID, now).
			Return(false, nil).
			Once()

		var details map[string]any
		auditLog.On("Append", ctx, record.ID, auditDomain.ActionAutoDeletedRetention,
			(*uuid.UUID)(nil), now, mock.Anything).
			Run(func(args mock.Arguments) {
				details = args.Get(5).(map[string]any)
			}).
			Return(nil).
			Once()

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, gateway, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		assert.True(t, outcome.Succeeded)
		assert.False(t, outcome.AlreadyDeleted)
		assert.Equal(t, int64(2), outcome.ArtifactsDeleted)
		assert.Empty(t, outcome.ArtifactFailures)
		assert.Empty(t, outcome.FailureReason)

		require.NotNil(t, details)
		assert.Equal(t, record.RetentionDeadline.UTC().Format(time.RFC3339), details["retention_deadline"])
		assert.Equal(t, record.AgreedAt.UTC().Format(time.RFC3339), details["agreed_at"])
		assert.Equal(t, int64(2), details["artifacts_deleted"])

		consentRepo.AssertExpectations(t)
		auditLog.AssertExpectations(t)
		gateway.AssertExpectations(t)
		auditLog.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("Success_NoOpWhenRecordAlreadyDeleted", func(t *testing.T) {
		record := dueRecord(now)
		deletedAt := now.Add(-time.Hour)
		record.DeletedAt = &deletedAt

		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		gateway := &mockDeletionGateway{}
		txManager := &MockTxManager{}

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, gateway, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		assert.True(t, outcome.Succeeded)
		assert.True(t, outcome.AlreadyDeleted)
		consentRepo.AssertNotCalled(t, "MarkDeleted")
		auditLog.AssertNotCalled(t, "Append")
		gateway.AssertNotCalled(t, "DeleteDependentArtifacts")
	})

	t.Run("Success_NoOpWhenConcurrentRunCommitsFirst", func(t *testing.T) {
		record := dueRecord(now)
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		gateway := &mockDeletionGateway{}
		txManager := &MockTxManager{}

		gateway.On("DeleteDependentArtifacts", ctx, record.SubjectID).
			Return(int64(0), nil).
			Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("MarkDeleted", ctx, record.ID, now).
			Return(true, nil).
			Once()

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, gateway, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		assert.True(t, outcome.Succeeded)
		assert.True(t, outcome.AlreadyDeleted)
		// The losing run must not write a duplicate deletion entry.
		auditLog.AssertNotCalled(t, "Append")
	})

	t.Run("Success_LostRaceKeepsCascadeResultsOnOutcome", func(t *testing.T) {
		record := dueRecord(now)
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		gateway := &mockDeletionGateway{}
		txManager := &MockTxManager{}

		cascadeFailures := []retentionDomain.ArtifactFailure{
			{Kind: retentionDomain.ArtifactKindVoiceModel, Reason: "provider unavailable"},
		}
		gateway.On("DeleteDependentArtifacts", ctx, record.SubjectID).
			Return(int64(2), cascadeFailures).
			Once()
		auditLog.On("Append", ctx, record.ID, auditDomain.ActionArtifactDeleteFailed,
			(*uuid.UUID)(nil), now, mock.Anything).
			Return(nil).
			Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("MarkDeleted", ctx, record.ID, now).
			Return(true, nil).
			Once()

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, gateway, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		// The cascade ran before the race was lost; its results stay
		// visible on the no-op outcome.
		assert.True(t, outcome.Succeeded)
		assert.True(t, outcome.AlreadyDeleted)
		assert.Equal(t, int64(2), outcome.ArtifactsDeleted)
		require.Len(t, outcome.ArtifactFailures, 1)
		assert.Equal(t, retentionDomain.ArtifactKindVoiceModel, outcome.ArtifactFailures[0].Kind)
		consentRepo.AssertExpectations(t)
		auditLog.AssertExpectations(t)
	})

	t.Run("Success_CascadeFailureStillDeletesRecord", func(t *testing.T) {
		record := dueRecord(now)
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		gateway := &mockDeletionGateway{}
		txManager := &MockTxManager{}

		failures := []retentionDomain.ArtifactFailure{
			{Kind: retentionDomain.ArtifactKindVoiceModel, Reference: "model-42", Reason: "provider unavailable"},
		}
		gateway.On("DeleteDependentArtifacts", ctx, record.SubjectID).
			Return(int64(1), failures).
			Once()
		auditLog.On("Append", ctx, record.ID, auditDomain.ActionArtifactDeleteFailed,
			(*uuid.UUID)(nil), now, mock.Anything).
			Return(nil).
			Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("MarkDeleted", ctx, record.ID, now).
			Return(false, nil).
			Once()
		auditLog.On("Append", ctx, record.ID, auditDomain.ActionAutoDeletedRetention,
			(*uuid.UUID)(nil), now, mock.Anything).
			Return(nil).
			Once()

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, gateway, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		assert.True(t, outcome.Succeeded)
		assert.Equal(t, int64(1), outcome.ArtifactsDeleted)
		assert.Equal(t, failures, outcome.ArtifactFailures)
		consentRepo.AssertExpectations(t)
		auditLog.AssertExpectations(t)
	})

	t.Run("Success_ArtifactFailureAuditBestEffort", func(t *testing.T) {
		record := dueRecord(now)
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		gateway := &mockDeletionGateway{}
		txManager := &MockTxManager{}

		failures := []retentionDomain.ArtifactFailure{
			{Kind: retentionDomain.ArtifactKindVoiceSample, Reference: "subjects/x/a.wav", Reason: "timeout"},
		}
		gateway.On("DeleteDependentArtifacts", ctx, record.SubjectID).
			Return(int64(0), failures).
			Once()
		// Losing the failure entry must not block the soft delete.
		auditLog.On("Append", ctx, record.ID, auditDomain.ActionArtifactDeleteFailed,
			(*uuid.UUID)(nil), now, mock.Anything).
			Return(errors.New("audit store unavailable")).
			Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("MarkDeleted", ctx, record.ID, now).
			Return(false, nil).
			Once()
		auditLog.On("Append", ctx, record.ID, auditDomain.ActionAutoDeletedRetention,
			(*uuid.UUID)(nil), now, mock.Anything).
			Return(nil).
			Once()

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, gateway, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		assert.True(t, outcome.Succeeded)
		consentRepo.AssertExpectations(t)
		auditLog.AssertExpectations(t)
	})

	t.Run("Success_NilGatewaySkipsCascade", func(t *testing.T) {
		record := dueRecord(now)
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		txManager := &MockTxManager{}

		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("MarkDeleted", ctx, record.ID, now).
			Return(false, nil).
			Once()
		auditLog.On("Append", ctx, record.ID, auditDomain.ActionAutoDeletedRetention,
			(*uuid.UUID)(nil), now, mock.Anything).
			Return(nil).
			Once()

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, nil, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		assert.True(t, outcome.Succeeded)
		assert.Equal(t, int64(0), outcome.ArtifactsDeleted)
	})

	t.Run("Error_MarkDeletedFailureIsIsolatedOutcome", func(t *testing.T) {
		record := dueRecord(now)
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		gateway := &mockDeletionGateway{}
		txManager := &MockTxManager{}

		gateway.On("DeleteDependentArtifacts", ctx, record.SubjectID).
			Return(int64(0), nil).
			Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("MarkDeleted", ctx, record.ID, now).
			Return(false, errors.New("connection reset")).
			Once()

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, gateway, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		assert.False(t, outcome.Succeeded)
		assert.Contains(t, outcome.FailureReason, "connection reset")
		auditLog.AssertNotCalled(t, "Append")
	})

	t.Run("Error_AuditAppendFailureRollsBackDeletion", func(t *testing.T) {
		record := dueRecord(now)
		consentRepo := &mockConsentRepository{}
		auditLog := &mockAuditAppender{}
		gateway := &mockDeletionGateway{}
		txManager := &MockTxManager{}

		gateway.On("DeleteDependentArtifacts", ctx, record.SubjectID).
			Return(int64(0), nil).
			Once()
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).
			Return(nil).
			Once()
		consentRepo.On("MarkDeleted", ctx, record.ID, now).
			Return(false, nil).
			Once()
		auditLog.On("Append", ctx, record.ID, auditDomain.ActionAutoDeletedRetention,
			(*uuid.UUID)(nil), now, mock.Anything).
			Return(errors.New("audit store unavailable")).
			Once()

		enforcer := NewRetentionEnforcer(consentRepo, auditLog, gateway, txManager, nil)

		outcome := enforcer.Enforce(ctx, record, now)

		assert.False(t, outcome.Succeeded)
		assert.Contains(t, outcome.FailureReason, "audit store unavailable")
	})
}
