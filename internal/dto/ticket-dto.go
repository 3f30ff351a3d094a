package dto

import (
	"github.com/google/uuid"
)

type CreateTicketDTO struct {
	Title       string  `json:"title" validate:"required,trimmed_min=5,max=100"`
	Description string  `json:"description" validate:"required,trimmed_min=10,max=2000"`
	Priority    string  `json:"priority" validate:"omitempty,ticket_priority"`
	CategoryID  *uint64 `json:"category_id" validate:"omitempty,gt=0"`
}

// UpdateTicketDTO - частичное изменение. assigned_to и category_id принимают null.
type UpdateTicketDTO struct {
	Status     *string             `json:"status" validate:"omitempty,ticket_status"`
	Priority   *string             `json:"priority" validate:"omitempty,ticket_priority"`
	AssignedTo Optional[uuid.UUID] `json:"assigned_to"`
	CategoryID Optional[uint64]    `json:"category_id"`
	Version    *int                `json:"version" validate:"omitempty,gt=0"`
}

type UpdateTicketStatusDTO struct {
	Status  string `json:"status" validate:"required,ticket_status"`
	Version *int   `json:"version" validate:"omitempty,gt=0"`
}

type AssignTicketDTO struct {
	AssignedTo *uuid.UUID `json:"assigned_to"`
	Version    *int       `json:"version" validate:"omitempty,gt=0"`
}

// TicketListQuery - параметры выборки списка из query string.
type TicketListQuery struct {
	Status     string `query:"status" validate:"omitempty,ticket_status"`
	Priority   string `query:"priority" validate:"omitempty,ticket_priority"`
	CategoryID uint64 `query:"category_id"`
	AssignedTo string `query:"assigned_to" validate:"omitempty,uuid"`
	TagID      uint64 `query:"tag_id"`
	Search     string `query:"search" validate:"omitempty,max=100"`
}
