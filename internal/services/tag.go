package services

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

const defaultTagColor = "#6b7280"

type TagServiceInterface interface {
	List(ctx context.Context) ([]entities.Tag, error)
	Get(ctx context.Context, id uint64) (*entities.Tag, error)
	Create(ctx context.Context, payload dto.TagDTO) (*entities.Tag, error)
	Update(ctx context.Context, id uint64, payload dto.TagDTO) (*entities.Tag, error)
	Delete(ctx context.Context, id uint64) error

	ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Tag, error)
	AddToTicket(ctx context.Context, ticketID, tagID uint64) error
	RemoveFromTicket(ctx context.Context, ticketID, tagID uint64) error
}

type TagService struct {
	txManager   repositories.TxManagerInterface
	tagRepo     repositories.TagRepositoryInterface
	ticketRepo  repositories.TicketRepositoryInterface
	historyRepo repositories.TicketHistoryRepositoryInterface
	logger      *zap.Logger
}

func NewTagService(
	txManager repositories.TxManagerInterface,
	tagRepo repositories.TagRepositoryInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	historyRepo repositories.TicketHistoryRepositoryInterface,
	logger *zap.Logger,
) *TagService {
	return &TagService{
		txManager:   txManager,
		tagRepo:     tagRepo,
		ticketRepo:  ticketRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

func tagColor(color string) string {
	if color == "" {
		return defaultTagColor
	}
	return color
}

func (s *TagService) authorize(ctx context.Context, permission string, target interface{}) (*authz.Actor, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(permission, authz.Context{Actor: actor, Target: target}) {
		return nil, apperrors.ErrForbidden
	}
	return actor, nil
}

func (s *TagService) List(ctx context.Context) ([]entities.Tag, error) {
	if _, err := s.authorize(ctx, authz.TagsView, nil); err != nil {
		return nil, err
	}
	return s.tagRepo.List(ctx)
}

func (s *TagService) Get(ctx context.Context, id uint64) (*entities.Tag, error) {
	if _, err := s.authorize(ctx, authz.TagsView, nil); err != nil {
		return nil, err
	}
	return s.tagRepo.FindByID(ctx, id)
}

func (s *TagService) Create(ctx context.Context, payload dto.TagDTO) (*entities.Tag, error) {
	if _, err := s.authorize(ctx, authz.TagsManage, nil); err != nil {
		return nil, err
	}
	tag := &entities.Tag{
		Name:        strings.TrimSpace(payload.Name),
		Color:       tagColor(payload.Color),
		Description: payload.Description,
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *TagService) Update(ctx context.Context, id uint64, payload dto.TagDTO) (*entities.Tag, error) {
	if _, err := s.authorize(ctx, authz.TagsManage, nil); err != nil {
		return nil, err
	}
	tag := &entities.Tag{
		ID:          id,
		Name:        strings.TrimSpace(payload.Name),
		Color:       tagColor(payload.Color),
		Description: payload.Description,
	}
	if err := s.tagRepo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *TagService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.authorize(ctx, authz.TagsManage, nil); err != nil {
		return err
	}
	return s.tagRepo.Delete(ctx, id)
}

func (s *TagService) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Tag, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, authz.TicketsView, ticket); err != nil {
		return nil, err
	}
	return s.tagRepo.ListByTicket(ctx, ticketID)
}

func (s *TagService) AddToTicket(ctx context.Context, ticketID, tagID uint64) error {
	return s.changeTicketTag(ctx, ticketID, tagID, true)
}

func (s *TagService) RemoveFromTicket(ctx context.Context, ticketID, tagID uint64) error {
	return s.changeTicketTag(ctx, ticketID, tagID, false)
}

// changeTicketTag пишет историю только если набор меток действительно изменился.
func (s *TagService) changeTicketTag(ctx context.Context, ticketID, tagID uint64, add bool) error {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return err
	}
	actor, err := s.authorize(ctx, authz.TicketTagsManage, ticket)
	if err != nil {
		return err
	}
	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var changed bool
		var entry *entities.TicketHistory
		if add {
			changed, err = s.tagRepo.AddToTicket(ctx, tx, ticketID, tagID)
			entry = historyEntry(ticketID, actor.UserID, entities.HistoryTagAdded, "tag", "", tag.Name, "Etiqueta añadida: "+tag.Name)
		} else {
			changed, err = s.tagRepo.RemoveFromTicket(ctx, tx, ticketID, tagID)
			entry = historyEntry(ticketID, actor.UserID, entities.HistoryTagRemoved, "tag", tag.Name, "", "Etiqueta eliminada: "+tag.Name)
		}
		if err != nil {
			return err
		}
		if !changed {
			if !add {
				return apperrors.ErrNotFound
			}
			return nil
		}
		return s.historyRepo.Create(ctx, tx, entry)
	})
}
