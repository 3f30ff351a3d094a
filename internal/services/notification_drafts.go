package services

import (
	"fmt"

	"github.com/google/uuid"

	"antares-helpdesk/internal/entities"
)

// Причины пакетов уведомлений в outbox.
const (
	ReasonTicketCreated = "ticket_created"
	ReasonTicketMessage = "ticket_message"
	ReasonStatusChanged = "ticket_status_change"
	ReasonAssigned      = "ticket_assigned"
	ReasonDirect        = "direct"
)

const unknownAgentName = "un agente"

func draft(userID uuid.UUID, ticket *entities.Ticket, t entities.NotificationType, title, message string) entities.NotificationDraft {
	d := entities.NotificationDraft{UserID: userID, Type: t, Title: title, Message: message}
	if ticket != nil {
		id := ticket.ID
		d.TicketID = &id
	}
	return d
}

// TicketCreatedDrafts - всем admin и assistant, существующим на момент создания.
func TicketCreatedDrafts(ticket *entities.Ticket, staff []entities.Profile) []entities.NotificationDraft {
	drafts := make([]entities.NotificationDraft, 0, len(staff))
	seen := make(map[uuid.UUID]bool, len(staff))
	for _, p := range staff {
		if !p.Role.IsStaff() || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		drafts = append(drafts, draft(p.ID, ticket, entities.NotificationTicketCreated,
			"Nuevo ticket creado",
			fmt.Sprintf("Se ha creado un nuevo ticket: %s", ticket.Title)))
	}
	return drafts
}

// MessageDrafts - владельцу, если пишет не он, и исполнителю, если он не автор и не владелец.
func MessageDrafts(ticket *entities.Ticket, senderID uuid.UUID) []entities.NotificationDraft {
	message := fmt.Sprintf("Hay un nuevo mensaje en el ticket: \"%s\"", ticket.Title)
	drafts := make([]entities.NotificationDraft, 0, 2)

	if ticket.UserID != senderID {
		drafts = append(drafts, draft(ticket.UserID, ticket, entities.NotificationTicketMessage,
			"Nuevo mensaje en tu ticket", message))
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo != senderID && *ticket.AssignedTo != ticket.UserID {
		drafts = append(drafts, draft(*ticket.AssignedTo, ticket, entities.NotificationTicketMessage,
			"Nuevo mensaje en ticket asignado", message))
	}
	return drafts
}

func statusChangeTitle(status entities.TicketStatus) string {
	switch status {
	case entities.StatusClosed:
		return "Ticket cerrado"
	case entities.StatusPending:
		return "Ticket marcado como pendiente"
	default:
		return "Ticket reabierto"
	}
}

// StatusChangeDrafts - владельцу и исполнителю (если он не владелец).
func StatusChangeDrafts(ticket *entities.Ticket) []entities.NotificationDraft {
	label := ticket.Status.Label()
	title := statusChangeTitle(ticket.Status)

	drafts := []entities.NotificationDraft{
		draft(ticket.UserID, ticket, entities.NotificationTicketStatusChange, title,
			fmt.Sprintf("El estado de tu ticket \"%s\" ha cambiado a %s", ticket.Title, label)),
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo != ticket.UserID {
		drafts = append(drafts, draft(*ticket.AssignedTo, ticket, entities.NotificationTicketStatusChange, title,
			fmt.Sprintf("El ticket \"%s\" ha cambiado a %s", ticket.Title, label)))
	}
	return drafts
}

// AssignmentDrafts - новому исполнителю и владельцу тикета.
func AssignmentDrafts(ticket *entities.Ticket, assignee *entities.Profile) []entities.NotificationDraft {
	if ticket.AssignedTo == nil {
		return nil
	}
	agentName := unknownAgentName
	if assignee != nil {
		agentName = assignee.DisplayName()
	}

	drafts := []entities.NotificationDraft{
		draft(*ticket.AssignedTo, ticket, entities.NotificationTicketAssigned, "Nuevo ticket asignado",
			fmt.Sprintf("Se te ha asignado el ticket: \"%s\"", ticket.Title)),
	}
	if *ticket.AssignedTo != ticket.UserID {
		drafts = append(drafts, draft(ticket.UserID, ticket, entities.NotificationTicketAssigned, "Ticket asignado",
			fmt.Sprintf("Tu ticket \"%s\" ha sido asignado a %s", ticket.Title, agentName)))
	}
	return drafts
}
