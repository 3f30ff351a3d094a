package services

import (
	"context"
	"errors"
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

type MessageServiceInterface interface {
	List(ctx context.Context, ticketID uint64) ([]entities.Message, error)
	Create(ctx context.Context, ticketID uint64, payload dto.CreateMessageDTO) (*entities.Message, error)
	Delete(ctx context.Context, id uint64) error
}

type MessageService struct {
	txManager   repositories.TxManagerInterface
	messageRepo repositories.MessageRepositoryInterface
	ticketRepo  repositories.TicketRepositoryInterface
	outboxRepo  repositories.OutboxRepositoryInterface
	files       *StoredFiles
	logger      *zap.Logger
}

func NewMessageService(
	txManager repositories.TxManagerInterface,
	messageRepo repositories.MessageRepositoryInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	outboxRepo repositories.OutboxRepositoryInterface,
	files *StoredFiles,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		txManager:   txManager,
		messageRepo: messageRepo,
		ticketRepo:  ticketRepo,
		outboxRepo:  outboxRepo,
		files:       files,
		logger:      logger,
	}
}

// List - чтение разрешено и для закрытого тикета.
func (s *MessageService) List(ctx context.Context, ticketID uint64) ([]entities.Message, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanRead(actor, ticket) {
		return nil, apperrors.ErrForbidden
	}
	return s.messageRepo.ListByTicket(ctx, ticketID)
}

func (s *MessageService) Create(ctx context.Context, ticketID uint64, payload dto.CreateMessageDTO) (*entities.Message, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.MessagesCreate, authz.Context{Actor: actor, Target: ticket}) {
		return nil, apperrors.ErrForbidden
	}
	if ticket.IsClosed() {
		return nil, apperrors.ErrTicketClosed
	}

	body := strings.TrimSpace(payload.Body)
	if body == "" {
		return nil, apperrors.NewInvalidInputError("el mensaje no puede estar vacío")
	}
	if payload.AttachmentURL.Valid {
		if err := s.files.verifyMessageUpload(actor.UserID, payload.AttachmentURL.String); err != nil {
			return nil, err
		}
	}

	message := &entities.Message{
		TicketID:      ticketID,
		SenderID:      actor.UserID,
		Body:          body,
		AttachmentURL: payload.AttachmentURL,
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Закрытие тикета параллельным запросом ждёт этой транзакции или видно здесь
		status, err := s.ticketRepo.LockStatus(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if status == entities.StatusClosed {
			return apperrors.ErrTicketClosed
		}
		if err := s.messageRepo.Create(ctx, tx, message); err != nil {
			return err
		}
		return enqueueNotifications(ctx, tx, s.outboxRepo, ReasonTicketMessage, &ticket.ID,
			MessageDrafts(ticket, actor.UserID))
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketClosed) {
			s.logger.Warn("Тикет закрыт до отправки сообщения", zap.Uint64("ticketID", ticketID))
			return nil, err
		}
		s.logger.Error("Ошибка отправки сообщения", zap.Uint64("ticketID", ticketID), zap.Error(err))
		return nil, err
	}

	message.Sender = &entities.ProfileSummary{
		ID:       actor.UserID,
		FullName: actor.FullName,
		Email:    actor.Email,
		Role:     actor.Role,
	}
	return message, nil
}

func (s *MessageService) Delete(ctx context.Context, id uint64) error {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return err
	}
	message, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, message.TicketID)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.MessagesDelete, authz.Context{Actor: actor, Target: ticket}) {
		return apperrors.ErrForbidden
	}
	objects, err := s.files.ofMessage(ctx, message)
	if err != nil {
		return err
	}
	if err := s.messageRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.files.remove(objects)
	s.logger.Info("Сообщение удалено", zap.Uint64("messageID", id), zap.String("actor", actor.UserID.String()))
	return nil
}
