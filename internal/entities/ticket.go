package entities

import (
	"github.com/google/uuid"

	"antares-helpdesk/pkg/types"
)

type TicketStatus string

const (
	StatusOpen    TicketStatus = "open"
	StatusPending TicketStatus = "pending"
	StatusClosed  TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusClosed:
		return true
	}
	return false
}

// Label - название статуса в тексте уведомлений.
func (s TicketStatus) Label() string {
	switch s {
	case StatusClosed:
		return "cerrado"
	case StatusPending:
		return "pendiente"
	default:
		return "abierto"
	}
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Ticket struct {
	ID          uint64         `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Status      TicketStatus   `json:"status" db:"status"`
	Priority    TicketPriority `json:"priority" db:"priority"`
	UserID      uuid.UUID      `json:"user_id" db:"user_id"`
	CategoryID  *uint64        `json:"category_id" db:"category_id"`
	AssignedTo  *uuid.UUID     `json:"assigned_to" db:"assigned_to"`
	Version     int            `json:"version" db:"version"`

	types.BaseEntity
}

func (t *Ticket) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}

func (t *Ticket) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

func (t *Ticket) IsClosed() bool {
	return t.Status == StatusClosed
}

// CategorySummary - категория внутри обогащённого тикета.
type CategorySummary struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// TicketDetails - тикет вместе с владельцем, исполнителем, категорией и тегами.
type TicketDetails struct {
	Ticket
	Owner    ProfileSummary   `json:"owner"`
	Assignee *ProfileSummary  `json:"assignee,omitempty"`
	Category *CategorySummary `json:"category,omitempty"`
	Tags     []Tag            `json:"tags"`
}

type TicketScope string

const (
	ScopeMine   TicketScope = "mine"
	ScopeAll    TicketScope = "all"
	ScopeOpen   TicketScope = "open"
	ScopeClosed TicketScope = "closed"
)

func (s TicketScope) Valid() bool {
	switch s {
	case ScopeMine, ScopeAll, ScopeOpen, ScopeClosed:
		return true
	}
	return false
}

// TicketFilter - условия выборки списка тикетов.
type TicketFilter struct {
	OwnerID    *uuid.UUID
	AssignedTo *uuid.UUID
	Statuses   []TicketStatus
	Priority   *TicketPriority
	CategoryID *uint64
	TagID      *uint64
	Search     string
	Limit      uint64
	Offset     uint64
}
