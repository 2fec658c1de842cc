// Package domain defines the alert event model used to hand operator alerts
// to the delivery pipeline.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AlertEventStatus represents the delivery status of an alert event.
type AlertEventStatus string

const (
	AlertEventStatusPending   AlertEventStatus = "pending"
	AlertEventStatusProcessed AlertEventStatus = "processed"
	AlertEventStatusFailed    AlertEventStatus = "failed"
)

// EventTypeRetentionJobAttention marks a retention run whose summary needs
// operator attention.
const EventTypeRetentionJobAttention = "retention_job_attention"

// AlertEvent is a durable operator alert awaiting delivery. Events are
// created in the same database as the state they describe, so a run summary
// and its alert never drift apart; a separate loop drains pending events.
type AlertEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      AlertEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewAlertEvent creates a pending alert event with a JSON payload.
func NewAlertEvent(eventType, payload string) *AlertEvent {
	return &AlertEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   payload,
		Status:    AlertEventStatusPending,
	}
}

// MarkProcessed transitions the event to processed at the given time.
func (e *AlertEvent) MarkProcessed(at time.Time) {
	e.Status = AlertEventStatusProcessed
	e.ProcessedAt = &at
}

// RecordFailure notes one failed delivery attempt. Once retries reach
// maxRetries the event is parked as failed and no longer selected.
func (e *AlertEvent) RecordFailure(reason string, maxRetries int) {
	e.Retries++
	e.LastError = &reason
	if e.Retries >= maxRetries {
		e.Status = AlertEventStatusFailed
	}
}
