package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

type Message struct {
	ID            uint64      `json:"id" db:"id"`
	TicketID      uint64      `json:"ticket_id" db:"ticket_id"`
	SenderID      uuid.UUID   `json:"sender_id" db:"sender_id"`
	Body          string      `json:"body" db:"body"`
	AttachmentURL null.String `json:"attachment_url" db:"attachment_url"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`

	Sender *ProfileSummary `json:"sender,omitempty" db:"-"`
}
