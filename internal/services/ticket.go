package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

type TicketServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateTicketDTO) (*entities.TicketDetails, error)
	List(ctx context.Context, scope entities.TicketScope, query dto.TicketListQuery, limit, offset uint64) ([]entities.TicketDetails, uint64, error)
	ListByTag(ctx context.Context, tagID uint64, limit, offset uint64) ([]entities.TicketDetails, uint64, error)
	Get(ctx context.Context, id uint64) (*entities.TicketDetails, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateTicketDTO) (*entities.TicketDetails, error)
	UpdateStatus(ctx context.Context, id uint64, payload dto.UpdateTicketStatusDTO) (*entities.TicketDetails, error)
	Assign(ctx context.Context, id uint64, payload dto.AssignTicketDTO) (*entities.TicketDetails, error)
	Delete(ctx context.Context, id uint64) error
}

type TicketService struct {
	txManager    repositories.TxManagerInterface
	ticketRepo   repositories.TicketRepositoryInterface
	profileRepo  repositories.ProfileRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	historyRepo  repositories.TicketHistoryRepositoryInterface
	outboxRepo   repositories.OutboxRepositoryInterface
	files        *StoredFiles
	logger       *zap.Logger
}

func NewTicketService(
	txManager repositories.TxManagerInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	historyRepo repositories.TicketHistoryRepositoryInterface,
	outboxRepo repositories.OutboxRepositoryInterface,
	files *StoredFiles,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		txManager:    txManager,
		ticketRepo:   ticketRepo,
		profileRepo:  profileRepo,
		categoryRepo: categoryRepo,
		historyRepo:  historyRepo,
		outboxRepo:   outboxRepo,
		files:        files,
		logger:       logger,
	}
}

func (s *TicketService) Create(ctx context.Context, payload dto.CreateTicketDTO) (*entities.TicketDetails, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.TicketsCreate, authz.Context{Actor: actor}) {
		return nil, apperrors.ErrForbidden
	}

	ticket := &entities.Ticket{
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		Status:      entities.StatusOpen,
		Priority:    entities.PriorityMedium,
		UserID:      actor.UserID,
		CategoryID:  payload.CategoryID,
	}
	if payload.Priority != "" {
		ticket.Priority = entities.TicketPriority(payload.Priority)
	}
	if err := validateTicketText(ticket); err != nil {
		return nil, err
	}
	if ticket.CategoryID != nil {
		if err := s.ensureCategory(ctx, *ticket.CategoryID); err != nil {
			return nil, err
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if ticket.CategoryID != nil {
			candidate, err := s.profileRepo.FindAutoAssignCandidate(ctx, tx, *ticket.CategoryID)
			switch {
			case err == nil:
				ticket.AssignedTo = &candidate.ID
			case !errors.Is(err, apperrors.ErrNotFound):
				return err
			}
		}

		if err := s.ticketRepo.Create(ctx, tx, ticket); err != nil {
			return err
		}
		entry := historyEntry(ticket.ID, actor.UserID, entities.HistoryCreated, "", "", string(ticket.Status),
			fmt.Sprintf("Ticket creado: %s", ticket.Title))
		if err := s.historyRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		staff, err := s.profileRepo.ListStaff(ctx, tx)
		if err != nil {
			return err
		}
		return enqueueNotifications(ctx, tx, s.outboxRepo, ReasonTicketCreated, &ticket.ID,
			TicketCreatedDrafts(ticket, staff))
	})
	if err != nil {
		s.logger.Error("Ошибка создания тикета", zap.String("userID", actor.UserID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Тикет создан",
		zap.Uint64("ticketID", ticket.ID),
		zap.String("assignedTo", uuidString(ticket.AssignedTo)),
	)
	return s.ticketRepo.GetDetails(ctx, ticket.ID)
}

// validateTicketText - длины считаются в символах после обрезки пробелов.
func validateTicketText(t *entities.Ticket) error {
	if n := len([]rune(t.Title)); n < 5 || n > 100 {
		return apperrors.NewInvalidInputError("el título debe tener entre 5 y 100 caracteres")
	}
	if n := len([]rune(t.Description)); n < 10 || n > 2000 {
		return apperrors.NewInvalidInputError("la descripción debe tener entre 10 y 2000 caracteres")
	}
	if !t.Priority.Valid() {
		return apperrors.NewInvalidInputError("prioridad no válida: %s", t.Priority)
	}
	return nil
}

func (s *TicketService) ensureCategory(ctx context.Context, id uint64) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewInvalidInputError("la categoría indicada no existe")
		}
		return err
	}
	return nil
}

// List - клиенты и сотрудники отдела видят только свои тикеты, ассистенты и админы - все.
func (s *TicketService) List(ctx context.Context, scope entities.TicketScope, query dto.TicketListQuery, limit, offset uint64) ([]entities.TicketDetails, uint64, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	filter, err := buildTicketFilter(actor, scope, query)
	if err != nil {
		return nil, 0, err
	}
	filter.Limit = limit
	filter.Offset = offset
	return s.ticketRepo.List(ctx, filter)
}

func (s *TicketService) ListByTag(ctx context.Context, tagID uint64, limit, offset uint64) ([]entities.TicketDetails, uint64, error) {
	return s.List(ctx, "", dto.TicketListQuery{TagID: tagID}, limit, offset)
}

func buildTicketFilter(actor *authz.Actor, scope entities.TicketScope, query dto.TicketListQuery) (entities.TicketFilter, error) {
	if !authz.CanDo(authz.TicketsView, authz.Context{Actor: actor}) {
		return entities.TicketFilter{}, apperrors.ErrForbidden
	}
	seesAll := authz.CanDo(authz.ScopeAll, authz.Context{Actor: actor})

	var filter entities.TicketFilter
	switch scope {
	case entities.ScopeMine:
		filter.OwnerID = &actor.UserID
	case entities.ScopeAll:
		if !seesAll {
			return filter, apperrors.ErrForbidden
		}
	case entities.ScopeOpen:
		filter.Statuses = []entities.TicketStatus{entities.StatusOpen, entities.StatusPending}
	case entities.ScopeClosed:
		filter.Statuses = []entities.TicketStatus{entities.StatusClosed}
	case "":
	default:
		return filter, apperrors.NewInvalidInputError("ámbito no válido: %s", scope)
	}
	if !seesAll {
		filter.OwnerID = &actor.UserID
	}

	if query.Status != "" {
		filter.Statuses = []entities.TicketStatus{entities.TicketStatus(query.Status)}
	}
	if query.Priority != "" {
		p := entities.TicketPriority(query.Priority)
		filter.Priority = &p
	}
	if query.CategoryID > 0 {
		filter.CategoryID = &query.CategoryID
	}
	if query.TagID > 0 {
		filter.TagID = &query.TagID
	}
	if query.AssignedTo != "" {
		id, err := uuid.Parse(query.AssignedTo)
		if err != nil {
			return filter, apperrors.NewInvalidInputError("assigned_to no es un identificador válido")
		}
		filter.AssignedTo = &id
	}
	filter.Search = strings.TrimSpace(query.Search)
	return filter, nil
}

func (s *TicketService) Get(ctx context.Context, id uint64) (*entities.TicketDetails, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	details, err := s.ticketRepo.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanRead(actor, details) {
		return nil, apperrors.ErrForbidden
	}
	return details, nil
}

// ticketChange - набор изменений одного PATCH.
type ticketChange struct {
	status      *entities.TicketStatus
	priority    *entities.TicketPriority
	assignSet   bool
	assignedTo  *uuid.UUID
	categorySet bool
	categoryID  *uint64
	version     *int
}

func (s *TicketService) Update(ctx context.Context, id uint64, payload dto.UpdateTicketDTO) (*entities.TicketDetails, error) {
	change := ticketChange{
		assignSet:   payload.AssignedTo.Set,
		assignedTo:  payload.AssignedTo.Value,
		categorySet: payload.CategoryID.Set,
		categoryID:  payload.CategoryID.Value,
		version:     payload.Version,
	}
	if payload.Status != nil {
		st := entities.TicketStatus(*payload.Status)
		change.status = &st
	}
	if payload.Priority != nil {
		p := entities.TicketPriority(*payload.Priority)
		change.priority = &p
	}
	return s.mutate(ctx, id, change)
}

func (s *TicketService) UpdateStatus(ctx context.Context, id uint64, payload dto.UpdateTicketStatusDTO) (*entities.TicketDetails, error) {
	st := entities.TicketStatus(payload.Status)
	return s.mutate(ctx, id, ticketChange{status: &st, version: payload.Version})
}

func (s *TicketService) Assign(ctx context.Context, id uint64, payload dto.AssignTicketDTO) (*entities.TicketDetails, error) {
	return s.mutate(ctx, id, ticketChange{assignSet: true, assignedTo: payload.AssignedTo, version: payload.Version})
}

// mutate применяет изменения через compare-and-swap по версии: без версии
// от клиента сравнивается версия, прочитанная здесь же.
func (s *TicketService) mutate(ctx context.Context, id uint64, change ticketChange) (*entities.TicketDetails, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanWrite(actor, ticket) {
		return nil, apperrors.ErrForbidden
	}
	if change.version != nil {
		ticket.Version = *change.version
	}

	old := *ticket
	var assignee *entities.Profile

	if change.status != nil {
		if !change.status.Valid() {
			return nil, apperrors.NewInvalidInputError("estado no válido: %s", *change.status)
		}
		ticket.Status = *change.status
	}
	if change.priority != nil {
		if !change.priority.Valid() {
			return nil, apperrors.NewInvalidInputError("prioridad no válida: %s", *change.priority)
		}
		ticket.Priority = *change.priority
	}
	if change.categorySet {
		if change.categoryID != nil {
			if err := s.ensureCategory(ctx, *change.categoryID); err != nil {
				return nil, err
			}
		}
		ticket.CategoryID = change.categoryID
	}
	if change.assignSet {
		if change.assignedTo != nil {
			assignee, err = s.loadAssignee(ctx, *change.assignedTo)
			if err != nil {
				return nil, err
			}
		}
		ticket.AssignedTo = change.assignedTo
	}

	statusChanged := old.Status != ticket.Status
	priorityChanged := old.Priority != ticket.Priority
	categoryChanged := utils.DiffPtr(old.CategoryID, ticket.CategoryID)
	assignChanged := utils.DiffPtr(old.AssignedTo, ticket.AssignedTo)
	if !statusChanged && !priorityChanged && !categoryChanged && !assignChanged {
		return s.ticketRepo.GetDetails(ctx, id)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.ticketRepo.Update(ctx, tx, ticket); err != nil {
			return err
		}

		entries := make([]*entities.TicketHistory, 0, 4)
		if statusChanged {
			entries = append(entries, historyEntry(id, actor.UserID, entities.HistoryStatusChanged, "status",
				string(old.Status), string(ticket.Status), ""))
		}
		if priorityChanged {
			entries = append(entries, historyEntry(id, actor.UserID, entities.HistoryPriorityChanged, "priority",
				string(old.Priority), string(ticket.Priority), ""))
		}
		if categoryChanged {
			entries = append(entries, historyEntry(id, actor.UserID, entities.HistoryCategoryChanged, "category_id",
				utils.PtrToString(old.CategoryID), utils.PtrToString(ticket.CategoryID), ""))
		}
		if assignChanged {
			if ticket.AssignedTo != nil {
				entries = append(entries, historyEntry(id, actor.UserID, entities.HistoryAssigned, "assigned_to",
					uuidString(old.AssignedTo), uuidString(ticket.AssignedTo),
					fmt.Sprintf("Asignado a %s", assignee.DisplayName())))
			} else {
				entries = append(entries, historyEntry(id, actor.UserID, entities.HistoryUnassigned, "assigned_to",
					uuidString(old.AssignedTo), "", "Ticket sin asignar"))
			}
		}
		for _, entry := range entries {
			if err := s.historyRepo.Create(ctx, tx, entry); err != nil {
				return err
			}
		}

		if statusChanged {
			if err := enqueueNotifications(ctx, tx, s.outboxRepo, ReasonStatusChanged, &ticket.ID,
				StatusChangeDrafts(ticket)); err != nil {
				return err
			}
		}
		if assignChanged && ticket.AssignedTo != nil {
			if err := enqueueNotifications(ctx, tx, s.outboxRepo, ReasonAssigned, &ticket.ID,
				AssignmentDrafts(ticket, assignee)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			s.logger.Error("Ошибка обновления тикета", zap.Uint64("ticketID", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Тикет обновлён",
		zap.Uint64("ticketID", id),
		zap.Int("version", ticket.Version),
		zap.String("actor", actor.UserID.String()),
	)
	return s.ticketRepo.GetDetails(ctx, id)
}

// loadAssignee - назначать можно только ассистента или администратора.
func (s *TicketService) loadAssignee(ctx context.Context, id uuid.UUID) (*entities.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewInvalidInputError("el agente indicado no existe")
		}
		return nil, err
	}
	if !profile.Role.IsStaff() {
		return nil, apperrors.NewInvalidInputError("solo se puede asignar a un asistente o administrador")
	}
	return profile, nil
}

func (s *TicketService) Delete(ctx context.Context, id uint64) error {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.TicketsDelete, authz.Context{Actor: actor, Target: ticket}) {
		return apperrors.ErrForbidden
	}
	// Строки вложений уходят каскадом, пути нужно собрать до удаления
	objects, err := s.files.ofTicket(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ticketRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.files.remove(objects)
	s.logger.Info("Тикет удалён",
		zap.Uint64("ticketID", id),
		zap.String("actor", actor.UserID.String()),
		zap.Int("files", len(objects)),
	)
	return nil
}
