package listeners

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/events"
	"antares-helpdesk/pkg/eventbus"
)

// RealtimePublisher - отправка уведомления подписанным клиентам.
type RealtimePublisher interface {
	Publish(ctx context.Context, n entities.Notification) error
}

// UnreadInvalidator сбрасывает кэш счётчика непрочитанных.
type UnreadInvalidator interface {
	InvalidateUnread(ctx context.Context, userID uuid.UUID)
}

// NotificationListener реагирует на вставку уведомления диспетчером outbox.
type NotificationListener struct {
	feed   RealtimePublisher
	unread UnreadInvalidator
	logger *zap.Logger
}

func NewNotificationListener(feed RealtimePublisher, unread UnreadInvalidator, logger *zap.Logger) *NotificationListener {
	return &NotificationListener{feed: feed, unread: unread, logger: logger}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.NotificationCreated, l.handleNotificationCreated)
	l.logger.Info("NotificationListener подписан на событие", zap.String("event", events.NotificationCreated))
}

func (l *NotificationListener) handleNotificationCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.NotificationCreatedEvent)
	if !ok {
		return nil
	}
	n := e.Notification

	if l.unread != nil {
		l.unread.InvalidateUnread(ctx, n.UserID)
	}
	return l.feed.Publish(ctx, n)
}
