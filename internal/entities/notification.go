package entities

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTicketAssigned     NotificationType = "ticket_assigned"
	NotificationTicketMessage      NotificationType = "ticket_message"
	NotificationTicketStatusChange NotificationType = "ticket_status_change"
	NotificationTicketCreated      NotificationType = "ticket_created"
	NotificationTicketClosed       NotificationType = "ticket_closed"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTicketAssigned, NotificationTicketMessage, NotificationTicketStatusChange,
		NotificationTicketCreated, NotificationTicketClosed:
		return true
	}
	return false
}

type Notification struct {
	ID        uint64           `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	TicketID  *uint64          `json:"ticket_id" db:"ticket_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// NotificationDraft - уведомление, подготовленное к отправке через outbox.
type NotificationDraft struct {
	UserID   uuid.UUID        `json:"user_id"`
	TicketID *uint64          `json:"ticket_id,omitempty"`
	Type     NotificationType `json:"type"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
}
