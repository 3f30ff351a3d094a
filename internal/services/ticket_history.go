package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

type TicketHistoryServiceInterface interface {
	List(ctx context.Context, ticketID uint64) ([]entities.TicketHistory, error)
}

type TicketHistoryService struct {
	historyRepo repositories.TicketHistoryRepositoryInterface
	ticketRepo  repositories.TicketRepositoryInterface
	logger      *zap.Logger
}

func NewTicketHistoryService(
	historyRepo repositories.TicketHistoryRepositoryInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	logger *zap.Logger,
) *TicketHistoryService {
	return &TicketHistoryService{historyRepo: historyRepo, ticketRepo: ticketRepo, logger: logger}
}

func (s *TicketHistoryService) List(ctx context.Context, ticketID uint64) ([]entities.TicketHistory, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.HistoryView, authz.Context{Actor: actor, Target: ticket}) {
		return nil, apperrors.ErrForbidden
	}
	return s.historyRepo.ListByTicket(ctx, ticketID)
}

// historyEntry - строка истории для изменённого поля.
func historyEntry(ticketID uint64, actorID uuid.UUID, action entities.HistoryAction, field, oldValue, newValue, description string) *entities.TicketHistory {
	entry := &entities.TicketHistory{
		TicketID:  ticketID,
		ChangedBy: actorID,
		Action:    action,
	}
	if field != "" {
		entry.FieldName = null.StringFrom(field)
	}
	if oldValue != "" {
		entry.OldValue = null.StringFrom(oldValue)
	}
	if newValue != "" {
		entry.NewValue = null.StringFrom(newValue)
	}
	if description != "" {
		entry.Description = null.StringFrom(description)
	}
	return entry
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
