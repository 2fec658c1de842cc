package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/scenespin/voiceconsent/internal/alert/domain"
	"github.com/scenespin/voiceconsent/internal/database"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
)

// MySQLAlertEventRepository handles alert event persistence for MySQL.
// UUIDs are stored as 16-byte binary columns.
type MySQLAlertEventRepository struct {
	db *sql.DB
}

// NewMySQLAlertEventRepository creates a new MySQL alert event repository.
func NewMySQLAlertEventRepository(db *sql.DB) *MySQLAlertEventRepository {
	return &MySQLAlertEventRepository{db: db}
}

// Create inserts a new alert event.
func (r *MySQLAlertEventRepository) Create(ctx context.Context, event *domain.AlertEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO alert_events (id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, event.ID[:], event.EventType, event.Payload, event.Status,
		event.Retries, event.LastError, event.ProcessedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create alert event")
	}

	return nil
}

// GetPendingEvents retrieves pending events oldest first, locking the selected
// rows so concurrent drain loops never deliver the same alert twice.
func (r *MySQLAlertEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.AlertEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at
			  FROM alert_events
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.AlertEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending alert events")
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []*domain.AlertEvent
	for rows.Next() {
		var event domain.AlertEvent
		var eventID []byte

		err := rows.Scan(&eventID, &event.EventType, &event.Payload, &event.Status,
			&event.Retries, &event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan alert event")
		}

		event.ID, err = uuid.FromBytes(eventID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse alert event id")
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate alert events")
	}

	return events, nil
}

// Update persists the event's delivery state.
func (r *MySQLAlertEventRepository) Update(ctx context.Context, event *domain.AlertEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE alert_events
			  SET event_type = ?, payload = ?, status = ?, retries = ?, last_error = ?,
			      processed_at = ?, updated_at = NOW()
			  WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, event.EventType, event.Payload, event.Status,
		event.Retries, event.LastError, event.ProcessedAt, event.ID[:])
	if err != nil {
		return apperrors.Wrap(err, "failed to update alert event")
	}

	return nil
}
