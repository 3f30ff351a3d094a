package entities

import (
	"encoding/json"
	"time"

	"github.com/aarondl/null/v8"
)

const OutboxNotificationsBatch = "notifications.batch"

// OutboxEvent - событие, записанное в той же транзакции, что и основное изменение.
type OutboxEvent struct {
	ID          uint64          `db:"id"`
	EventType   string          `db:"event_type"`
	TicketID    *uint64         `db:"ticket_id"`
	Payload     json.RawMessage `db:"payload"`
	Attempts    int             `db:"attempts"`
	AvailableAt time.Time       `db:"available_at"`
	ProcessedAt *time.Time      `db:"processed_at"`
	LastError   null.String     `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
}

// NotificationBatch - полезная нагрузка события notifications.batch.
type NotificationBatch struct {
	Reason string              `json:"reason"`
	Drafts []NotificationDraft `json:"drafts"`
}
