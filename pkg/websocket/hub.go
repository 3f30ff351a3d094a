package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type subscriptionKey struct {
	userID    uuid.UUID
	channelID string
}

// Hub хранит подписки по паре (пользователь, channel_id).
// У одного пользователя может быть несколько вкладок, каждая со своим channel_id.
type Hub struct {
	subscriptions map[subscriptionKey]*Client
	userClients   map[uuid.UUID]map[string]*Client
	mu            sync.RWMutex
	logger        *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscriptions: make(map[subscriptionKey]*Client),
		userClients:   make(map[uuid.UUID]map[string]*Client),
		logger:        logger,
	}
}

// Register подписывает клиента. Если канал с таким ключом уже есть,
// старая подписка сначала снимается и закрывается.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := client.key()
	if old, ok := h.subscriptions[key]; ok {
		h.removeLocked(old)
		h.logger.Info("WebSocket: повторная подписка, старый канал закрыт",
			zap.String("userID", client.UserID.String()),
			zap.String("channelID", client.ChannelID),
		)
	}

	h.subscriptions[key] = client
	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[string]*Client)
	}
	h.userClients[client.UserID][client.ChannelID] = client
	h.logger.Debug("WebSocket: клиент зарегистрирован",
		zap.String("userID", client.UserID.String()),
		zap.String("channelID", client.ChannelID),
	)
}

// AckSubscription отправляет клиенту подтверждение подписки,
// если его канал не успели перехватить.
func (h *Hub) AckSubscription(client *Client) error {
	messageBytes, err := json.Marshal(Envelope{
		Type:      TypeSubscribed,
		Payload:   SubscribedPayload{Channel: client.Channel(), ChannelID: client.ChannelID},
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.subscriptions[client.key()]; !ok || current != client {
		return nil
	}
	select {
	case client.Send <- messageBytes:
	default:
		h.removeLocked(client)
	}
	return nil
}

// Unregister снимает подписку, только если она всё ещё принадлежит этому клиенту.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.subscriptions[client.key()]; ok && current == client {
		h.removeLocked(client)
	}
}

func (h *Hub) removeLocked(client *Client) {
	key := client.key()
	delete(h.subscriptions, key)
	if channels, ok := h.userClients[client.UserID]; ok {
		if channels[client.ChannelID] == client {
			delete(channels, client.ChannelID)
		}
		if len(channels) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
	client.closeSend()
}

// SendMessageToUser доставляет сообщение во все вкладки пользователя.
// Клиент с переполненным буфером отключается, он дочитает пропущенное при переподключении.
func (h *Hub) SendMessageToUser(userID uuid.UUID, messageType string, payload interface{}) (int, error) {
	messageBytes, err := json.Marshal(Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- messageBytes:
			delivered++
		default:
			h.logger.Warn("WebSocket: буфер клиента переполнен, отключаем",
				zap.String("userID", userID.String()),
				zap.String("channelID", client.ChannelID),
			)
			h.removeLocked(client)
		}
	}
	return delivered, nil
}

// ConnectionsOf - количество активных подписок пользователя.
func (h *Hub) ConnectionsOf(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID])
}

// Close закрывает все подписки (при остановке сервера).
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.subscriptions {
		h.removeLocked(client)
	}
}
