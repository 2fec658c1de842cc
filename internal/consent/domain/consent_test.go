package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewConsentRecord(t *testing.T) {
	subjectID := uuid.Must(uuid.NewV7())
	agreedAt := time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)

	record := NewConsentRecord(subjectID, agreedAt, 3)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, subjectID, record.SubjectID)
	assert.Equal(t, agreedAt, record.AgreedAt)
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), record.RetentionDeadline)
	assert.Nil(t, record.DeletedAt)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestNewConsentRecord_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	agreedAt := time.Date(2022, 6, 15, 10, 0, 0, 0, loc)

	record := NewConsentRecord(uuid.Must(uuid.NewV7()), agreedAt, 3)

	assert.Equal(t, time.UTC, record.AgreedAt.Location())
	assert.True(t, record.AgreedAt.Equal(agreedAt))
}

func TestConsentRecord_Deleted(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		record   ConsentRecord
		expected bool
	}{
		{
			name:     "active record",
			record:   ConsentRecord{DeletedAt: nil},
			expected: false,
		},
		{
			name:     "deleted record",
			record:   ConsentRecord{DeletedAt: &now},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.Deleted())
		})
	}
}

func TestConsentRecord_DueForEnforcement(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	deletedAt := now.Add(-time.Hour)

	tests := []struct {
		name     string
		record   ConsentRecord
		expected bool
	}{
		{
			name: "deadline passed, not deleted",
			record: ConsentRecord{
				RetentionDeadline: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			expected: true,
		},
		{
			name: "deadline exactly now",
			record: ConsentRecord{
				RetentionDeadline: now,
			},
			expected: true,
		},
		{
			name: "deadline in the future",
			record: ConsentRecord{
				RetentionDeadline: now.Add(24 * time.Hour),
			},
			expected: false,
		},
		{
			name: "deadline passed but already deleted",
			record: ConsentRecord{
				RetentionDeadline: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				DeletedAt:         &deletedAt,
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.DueForEnforcement(now))
		})
	}
}
