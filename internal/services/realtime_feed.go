package services

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"antares-helpdesk/internal/entities"
	"antares-helpdesk/pkg/websocket"
)

// FeedBroker - межинстансная шина для уведомлений.
type FeedBroker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe возвращает поток сообщений и функцию отписки.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error)
}

type redisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) FeedBroker {
	return &redisBroker{client: client}
}

func (b *redisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *redisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error) {
	pubsub := b.client.Subscribe(ctx, channel)
	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close
}

// RealtimeFeed доставляет новые уведомления в websocket-подписки.
// С брокером каждое уведомление проходит через Redis и доставляется каждым
// инстансом своим локальным подключениям; без брокера - напрямую в хаб.
type RealtimeFeed struct {
	hub     *websocket.Hub
	broker  FeedBroker
	channel string
	logger  *zap.Logger
}

func NewRealtimeFeed(hub *websocket.Hub, broker FeedBroker, channel string, logger *zap.Logger) *RealtimeFeed {
	return &RealtimeFeed{hub: hub, broker: broker, channel: channel, logger: logger}
}

func (f *RealtimeFeed) Publish(ctx context.Context, n entities.Notification) error {
	if f.broker == nil {
		f.deliver(n)
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := f.broker.Publish(ctx, f.channel, payload); err != nil {
		f.logger.Warn("Redis недоступен, доставляем уведомление локально",
			zap.Uint64("notificationID", n.ID),
			zap.Error(err),
		)
		f.deliver(n)
	}
	return nil
}

// RunRelay пересылает уведомления из брокера в локальный хаб до отмены контекста.
func (f *RealtimeFeed) RunRelay(ctx context.Context) {
	if f.broker == nil {
		return
	}
	messages, unsubscribe := f.broker.Subscribe(ctx, f.channel)
	defer func() {
		if err := unsubscribe(); err != nil {
			f.logger.Warn("Ошибка отписки от канала уведомлений", zap.Error(err))
		}
	}()
	f.logger.Info("Ретранслятор уведомлений подписан", zap.String("channel", f.channel))

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-messages:
			if !ok {
				return
			}
			var n entities.Notification
			if err := json.Unmarshal(raw, &n); err != nil {
				f.logger.Warn("Некорректное сообщение в канале уведомлений", zap.Error(err))
				continue
			}
			f.deliver(n)
		}
	}
}

func (f *RealtimeFeed) deliver(n entities.Notification) {
	delivered, err := f.hub.SendMessageToUser(n.UserID, websocket.TypeNotificationCreated, n)
	if err != nil {
		f.logger.Error("Ошибка отправки уведомления в websocket", zap.Uint64("notificationID", n.ID), zap.Error(err))
		return
	}
	f.logger.Debug("Уведомление доставлено",
		zap.String("userID", n.UserID.String()),
		zap.Uint64("notificationID", n.ID),
		zap.Int("connections", delivered),
	)
}
