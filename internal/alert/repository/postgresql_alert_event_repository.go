// Package repository implements alert event persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"

	"github.com/scenespin/voiceconsent/internal/alert/domain"
	"github.com/scenespin/voiceconsent/internal/database"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
)

// PostgreSQLAlertEventRepository handles alert event persistence for PostgreSQL.
type PostgreSQLAlertEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLAlertEventRepository creates a new PostgreSQL alert event repository.
func NewPostgreSQLAlertEventRepository(db *sql.DB) *PostgreSQLAlertEventRepository {
	return &PostgreSQLAlertEventRepository{db: db}
}

// Create inserts a new alert event.
func (r *PostgreSQLAlertEventRepository) Create(ctx context.Context, event *domain.AlertEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO alert_events (id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, event.ID, event.EventType, event.Payload, event.Status,
		event.Retries, event.LastError, event.ProcessedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create alert event")
	}

	return nil
}

// GetPendingEvents retrieves pending events oldest first, locking the selected
// rows so concurrent drain loops never deliver the same alert twice.
func (r *PostgreSQLAlertEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.AlertEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at
			  FROM alert_events
			  WHERE status = $1
			  ORDER BY created_at ASC
			  LIMIT $2
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

		err := rows.Scan(&event.ID, &event.EventType, &event.Payload, &event.Status,
			&event.Retries, &event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan alert event")
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate alert events")
	}

	return events, nil
}

// Update persists the event's delivery state.
func (r *PostgreSQLAlertEventRepository) Update(ctx context.Context, event *domain.AlertEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE alert_events
			  SET event_type = $1, payload = $2, status = $3, retries = $4, last_error = $5,
			      processed_at = $6, updated_at = NOW()
			  WHERE id = $7`

	_, err := querier.ExecContext(ctx, query, event.EventType, event.Payload, event.Status,
		event.Retries, event.LastError, event.ProcessedAt, event.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update alert event")
	}

	return nil
}
