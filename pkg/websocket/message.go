package websocket

import "time"

const (
	TypeNotificationCreated = "notification.created"
	TypeSubscribed          = "subscribed"
)

// Envelope - конверт сообщения: тип подсказывает клиенту, что делать с payload.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscribedPayload подтверждает подписку на канал.
type SubscribedPayload struct {
	Channel   string `json:"channel"`
	ChannelID string `json:"channel_id"`
}
