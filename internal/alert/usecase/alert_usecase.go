// Package usecase implements the alert pipeline: enqueueing retention job
// alerts and draining pending events to a notifier.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/scenespin/voiceconsent/internal/alert/domain"
	"github.com/scenespin/voiceconsent/internal/database"
	apperrors "github.com/scenespin/voiceconsent/internal/errors"
	retentionDomain "github.com/scenespin/voiceconsent/internal/retention/domain"
)

// Config holds alert use case configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// AlertEventRepository defines alert event repository operations.
type AlertEventRepository interface {
	Create(ctx context.Context, event *domain.AlertEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.AlertEvent, error)
	Update(ctx context.Context, event *domain.AlertEvent) error
}

// Notifier delivers one alert event to the operator channel. Delivery
// transport (e-mail, paging, chat) lives behind this interface.
type Notifier interface {
	Notify(ctx context.Context, event *domain.AlertEvent) error
}

// UseCase defines the operations exposed by the alert module.
type UseCase interface {
	EnqueueRetentionAlert(ctx context.Context, summary *retentionDomain.JobSummary) error
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// AlertUseCase implements business logic for enqueueing and draining alerts.
type AlertUseCase struct {
	config    Config
	txManager database.TxManager
	alertRepo AlertEventRepository
	notifier  Notifier
	logger    *slog.Logger
}

// NewAlertUseCase creates a new AlertUseCase.
func NewAlertUseCase(
	config Config,
	txManager database.TxManager,
	alertRepo AlertEventRepository,
	notifier Notifier,
	logger *slog.Logger,
) *AlertUseCase {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &AlertUseCase{
		config:    config,
		txManager: txManager,
		alertRepo: alertRepo,
		notifier:  notifier,
		logger:    logger,
	}
}

// EnqueueRetentionAlert persists one durable alert event carrying the job
// summary. The caller typically runs this inside the surrounding job flow;
// delivery happens later via the drain loop.
func (uc *AlertUseCase) EnqueueRetentionAlert(
	ctx context.Context,
	summary *retentionDomain.JobSummary,
) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal job summary")
	}

	event := domain.NewAlertEvent(domain.EventTypeRetentionJobAttention, string(payload))
	if err := uc.alertRepo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to enqueue alert event")
	}

	if uc.logger != nil {
		uc.logger.Info("alert event enqueued",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
		)
	}

	return nil
}

// Start runs the alert drain loop until the context is cancelled.
func (uc *AlertUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting alert event processor",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping alert event processor")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to process alert events", slog.Any("error", err))
				}
			}
		}
	}
}

// ProcessEvents delivers pending events in one transaction. A delivery
// failure bumps the event's retry count; at MaxRetries the event is parked as
// failed for manual follow-up.
func (uc *AlertUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.alertRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("processing alert events", slog.Int("count", len(events)))
		}

		for _, event := range events {
			if err := uc.notifier.Notify(ctx, event); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to deliver alert event",
						slog.String("event_id", event.ID.String()),
						slog.Any("error", err),
					)
				}

				event.RecordFailure(err.Error(), uc.config.MaxRetries)
				if err := uc.alertRepo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			event.MarkProcessed(time.Now().UTC())
			if err := uc.alertRepo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// LogNotifier delivers alerts to the structured log. It is the default
// notifier when no delivery transport is configured: the payload still lands
// somewhere an operator watches.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert payload at warning level.
func (n *LogNotifier) Notify(ctx context.Context, event *domain.AlertEvent) error {
	if n.logger == nil {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return apperrors.Wrap(err, "failed to parse alert payload")
	}

	n.logger.Warn("operator attention required",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.Any("payload", payload),
	)

	return nil
}
