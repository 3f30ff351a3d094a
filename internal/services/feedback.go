package services

import (
	"context"
	"errors"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

type FeedbackServiceInterface interface {
	Create(ctx context.Context, ticketID uint64, payload dto.CreateFeedbackDTO) (*entities.TicketFeedback, error)
	GetByTicket(ctx context.Context, ticketID uint64) (*entities.TicketFeedback, error)
	List(ctx context.Context, limit, offset uint64) ([]entities.TicketFeedback, uint64, error)
	Stats(ctx context.Context) (*entities.FeedbackStats, error)
}

type FeedbackService struct {
	txManager    repositories.TxManagerInterface
	feedbackRepo repositories.FeedbackRepositoryInterface
	ticketRepo   repositories.TicketRepositoryInterface
	logger       *zap.Logger
}

func NewFeedbackService(
	txManager repositories.TxManagerInterface,
	feedbackRepo repositories.FeedbackRepositoryInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	logger *zap.Logger,
) *FeedbackService {
	return &FeedbackService{txManager: txManager, feedbackRepo: feedbackRepo, ticketRepo: ticketRepo, logger: logger}
}

// Create - оценку ставит только автор тикета и только после закрытия, один раз.
func (s *FeedbackService) Create(ctx context.Context, ticketID uint64, payload dto.CreateFeedbackDTO) (*entities.TicketFeedback, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if payload.Rating < entities.MinRating || payload.Rating > entities.MaxRating {
		return nil, apperrors.NewInvalidInputError("la valoración debe estar entre %d y %d", entities.MinRating, entities.MaxRating)
	}

	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.FeedbackCreate, authz.Context{Actor: actor, Target: ticket}) {
		return nil, apperrors.ErrForbidden
	}
	if !ticket.IsClosed() {
		return nil, apperrors.ErrTicketNotClosed
	}

	fb := &entities.TicketFeedback{
		TicketID: ticketID,
		UserID:   actor.UserID,
		Rating:   payload.Rating,
	}
	if payload.Comment.Valid && payload.Comment.String != "" {
		fb.Comment = null.StringFrom(payload.Comment.String)
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Тикет могли переоткрыть после первого чтения
		status, err := s.ticketRepo.LockStatus(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if status != entities.StatusClosed {
			return apperrors.ErrTicketNotClosed
		}
		return s.feedbackRepo.Create(ctx, tx, fb)
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrFeedbackExists):
			s.logger.Warn("Повторная оценка тикета", zap.Uint64("ticketID", ticketID))
		case errors.Is(err, apperrors.ErrTicketNotClosed):
			s.logger.Warn("Тикет переоткрыт до сохранения оценки", zap.Uint64("ticketID", ticketID))
		}
		return nil, err
	}
	s.logger.Info("Оценка тикета сохранена", zap.Uint64("ticketID", ticketID), zap.Int("rating", fb.Rating))
	return fb, nil
}

func (s *FeedbackService) GetByTicket(ctx context.Context, ticketID uint64) (*entities.TicketFeedback, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.FeedbackView, authz.Context{Actor: actor, Target: ticket}) {
		return nil, apperrors.ErrForbidden
	}
	return s.feedbackRepo.FindByTicket(ctx, ticketID)
}

func (s *FeedbackService) List(ctx context.Context, limit, offset uint64) ([]entities.TicketFeedback, uint64, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !authz.CanDo(authz.FeedbackList, authz.Context{Actor: actor}) {
		return nil, 0, apperrors.ErrForbidden
	}
	return s.feedbackRepo.List(ctx, limit, offset)
}

func (s *FeedbackService) Stats(ctx context.Context) (*entities.FeedbackStats, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.FeedbackStats, authz.Context{Actor: actor}) {
		return nil, apperrors.ErrForbidden
	}
	return s.feedbackRepo.Stats(ctx)
}
