package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/events"
	"antares-helpdesk/internal/repositories"
	"antares-helpdesk/pkg/config"
	"antares-helpdesk/pkg/eventbus"
)

var errMalformedEvent = errors.New("некорректное событие outbox")

// OutboxDispatcher забирает события outbox и превращает их в уведомления.
// Сбой доставки никогда не откатывает исходную запись.
type OutboxDispatcher struct {
	txManager        repositories.TxManagerInterface
	outboxRepo       repositories.OutboxRepositoryInterface
	notificationRepo repositories.NotificationRepositoryInterface
	bus              *eventbus.Bus
	cfg              config.DispatcherConfig
	logger           *zap.Logger
	now              func() time.Time
}

func NewOutboxDispatcher(
	txManager repositories.TxManagerInterface,
	outboxRepo repositories.OutboxRepositoryInterface,
	notificationRepo repositories.NotificationRepositoryInterface,
	bus *eventbus.Bus,
	cfg config.DispatcherConfig,
	logger *zap.Logger,
) *OutboxDispatcher {
	return &OutboxDispatcher{
		txManager:        txManager,
		outboxRepo:       outboxRepo,
		notificationRepo: notificationRepo,
		bus:              bus,
		cfg:              cfg,
		logger:           logger,
		now:              time.Now,
	}
}

// Run обрабатывает outbox до отмены контекста.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	d.logger.Info("Диспетчер outbox запущен", zap.Duration("interval", d.cfg.PollInterval))
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			if repositories.IsTransient(err) {
				d.logger.Warn("Диспетчер outbox: база недоступна, повтор на следующем такте", zap.Error(err))
			} else {
				d.logger.Error("Диспетчер outbox: ошибка обработки", zap.Error(err))
			}
		}
		select {
		case <-ctx.Done():
			d.logger.Info("Диспетчер outbox остановлен")
			return
		case <-ticker.C:
		}
	}
}

// ProcessBatch обрабатывает не больше BatchSize событий, каждое в своей транзакции.
func (d *OutboxDispatcher) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	for uint64(processed) < d.cfg.BatchSize {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		ok, err := d.processOne(ctx)
		if err != nil {
			return processed, err
		}
		if !ok {
			break
		}
		processed++
	}
	return processed, nil
}

func (d *OutboxDispatcher) processOne(ctx context.Context) (bool, error) {
	var (
		event    *entities.OutboxEvent
		inserted []entities.Notification
	)

	err := d.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		claimed, err := d.outboxRepo.ClaimBatch(ctx, tx, 1)
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		event = &claimed[0]

		drafts, err := decodeDrafts(event)
		if err != nil {
			return err
		}
		inserted, err = d.notificationRepo.InsertBatch(ctx, tx, event.ID, drafts)
		if err != nil {
			return err
		}
		return d.outboxRepo.MarkProcessed(ctx, tx, event.ID)
	})

	if event == nil {
		return false, err
	}
	if err != nil {
		d.handleFailure(ctx, event, err)
		return true, nil
	}

	for _, n := range inserted {
		d.bus.Publish(ctx, events.NotificationCreatedEvent{Notification: n})
	}
	d.logger.Debug("Событие outbox обработано",
		zap.Uint64("eventID", event.ID),
		zap.Int("notifications", len(inserted)),
	)
	return true, nil
}

func decodeDrafts(event *entities.OutboxEvent) ([]entities.NotificationDraft, error) {
	if event.EventType != entities.OutboxNotificationsBatch {
		return nil, fmt.Errorf("%w: неизвестный тип %q", errMalformedEvent, event.EventType)
	}
	var batch entities.NotificationBatch
	if err := json.Unmarshal(event.Payload, &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	return batch.Drafts, nil
}

// handleFailure переносит событие с линейной задержкой или паркует его.
func (d *OutboxDispatcher) handleFailure(ctx context.Context, event *entities.OutboxEvent, cause error) {
	attempts := event.Attempts + 1
	fields := []zap.Field{
		zap.Uint64("eventID", event.ID),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	}

	var err error
	if errors.Is(cause, errMalformedEvent) || attempts >= d.cfg.MaxAttempts {
		d.logger.Error("Событие outbox отложено окончательно", fields...)
		err = d.outboxRepo.Park(ctx, event.ID, cause.Error())
	} else {
		retryAt := d.now().Add(time.Duration(attempts) * d.cfg.RetryBackoff)
		d.logger.Warn("Событие outbox будет повторено", append(fields, zap.Time("retryAt", retryAt))...)
		err = d.outboxRepo.MarkFailed(ctx, event.ID, cause.Error(), retryAt)
	}
	if err != nil {
		d.logger.Error("Не удалось сохранить состояние события outbox", zap.Uint64("eventID", event.ID), zap.Error(err))
	}
}
