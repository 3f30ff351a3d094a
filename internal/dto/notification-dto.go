package dto

import "github.com/google/uuid"

// SendNotificationDTO - прямой вызов notify администратором.
type SendNotificationDTO struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	TicketID *uint64   `json:"ticket_id" validate:"omitempty,gt=0"`
	Type     string    `json:"type" validate:"required,oneof=ticket_assigned ticket_message ticket_status_change ticket_created ticket_closed"`
	Title    string    `json:"title" validate:"required,notblank,max=200"`
	Message  string    `json:"message" validate:"required,notblank,max=1000"`
}

type UnreadCountDTO struct {
	Count int64 `json:"count"`
}
