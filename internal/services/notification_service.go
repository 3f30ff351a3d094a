package services

import (
	"context"
	"errors"
	"strconv"
	"time"

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

const (
	DefaultNotificationLimit = 50
	unreadCountKeyPrefix     = "notifications:unread:"
)

type NotificationServiceInterface interface {
	Notify(ctx context.Context, payload dto.SendNotificationDTO) error
	List(ctx context.Context, limit uint64) ([]entities.Notification, error)
	ListUnread(ctx context.Context) ([]entities.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uint64) error
	MarkAllRead(ctx context.Context) (int64, error)
	InvalidateUnread(ctx context.Context, userID uuid.UUID)
}

type NotificationService struct {
	txManager        repositories.TxManagerInterface
	notificationRepo repositories.NotificationRepositoryInterface
	outboxRepo       repositories.OutboxRepositoryInterface
	profileRepo      repositories.ProfileRepositoryInterface
	ticketRepo       repositories.TicketRepositoryInterface
	cacheRepo        repositories.CacheRepositoryInterface
	unreadTTL        time.Duration
	logger           *zap.Logger
}

func NewNotificationService(
	txManager repositories.TxManagerInterface,
	notificationRepo repositories.NotificationRepositoryInterface,
	outboxRepo repositories.OutboxRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	unreadTTL time.Duration,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		txManager:        txManager,
		notificationRepo: notificationRepo,
		outboxRepo:       outboxRepo,
		profileRepo:      profileRepo,
		ticketRepo:       ticketRepo,
		cacheRepo:        cacheRepo,
		unreadTTL:        unreadTTL,
		logger:           logger,
	}
}

// enqueueNotifications пишет пакет уведомлений в outbox в транзакции основной записи.
func enqueueNotifications(
	ctx context.Context,
	tx pgx.Tx,
	outboxRepo repositories.OutboxRepositoryInterface,
	reason string,
	ticketID *uint64,
	drafts []entities.NotificationDraft,
) error {
	if len(drafts) == 0 {
		return nil
	}
	_, err := outboxRepo.Enqueue(ctx, tx, entities.OutboxNotificationsBatch, ticketID,
		entities.NotificationBatch{Reason: reason, Drafts: drafts})
	return err
}

// Notify - прямая отправка уведомления, через тот же outbox.
func (s *NotificationService) Notify(ctx context.Context, payload dto.SendNotificationDTO) error {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.NotificationsSend, authz.Context{Actor: actor}) {
		return apperrors.ErrForbidden
	}
	// Несуществующий адресат иначе всплыл бы только в диспетчере как FK-ошибка
	if _, err := s.profileRepo.FindByID(ctx, payload.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewInvalidInputError("el destinatario no existe")
		}
		return err
	}
	if payload.TicketID != nil {
		if _, err := s.ticketRepo.FindByID(ctx, *payload.TicketID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewInvalidInputError("el ticket no existe")
			}
			return err
		}
	}

	d := entities.NotificationDraft{
		UserID:   payload.UserID,
		TicketID: payload.TicketID,
		Type:     entities.NotificationType(payload.Type),
		Title:    payload.Title,
		Message:  payload.Message,
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return enqueueNotifications(ctx, tx, s.outboxRepo, ReasonDirect, payload.TicketID, []entities.NotificationDraft{d})
	})
}

func (s *NotificationService) List(ctx context.Context, limit uint64) ([]entities.Notification, error) {
	actor, err := s.viewer(ctx)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultNotificationLimit
	}
	return s.notificationRepo.ListByUser(ctx, actor.UserID, limit, false)
}

func (s *NotificationService) ListUnread(ctx context.Context) ([]entities.Notification, error) {
	actor, err := s.viewer(ctx)
	if err != nil {
		return nil, err
	}
	return s.notificationRepo.ListByUser(ctx, actor.UserID, DefaultNotificationLimit, true)
}

// UnreadCount кэшируется в Redis; кэш сбрасывается при вставке и прочтении.
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	actor, err := s.viewer(ctx)
	if err != nil {
		return 0, err
	}
	key := unreadCountKeyPrefix + actor.UserID.String()

	cached, err := s.cacheRepo.Get(ctx, key)
	if err == nil {
		if count, convErr := strconv.ParseInt(cached, 10, 64); convErr == nil {
			return count, nil
		}
	} else if !errors.Is(err, repositories.ErrCacheMiss) {
		s.logger.Warn("Кэш счётчика уведомлений недоступен", zap.Error(err))
	}

	count, err := s.notificationRepo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, err
	}
	if err := s.cacheRepo.Set(ctx, key, strconv.FormatInt(count, 10), s.unreadTTL); err != nil {
		s.logger.Warn("Не удалось закэшировать счётчик уведомлений", zap.Error(err))
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uint64) error {
	actor, err := s.viewer(ctx)
	if err != nil {
		return err
	}
	notification, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanWrite(actor, notification) {
		return apperrors.ErrForbidden
	}

	changed, err := s.notificationRepo.MarkRead(ctx, id, actor.UserID)
	if err != nil {
		return err
	}
	if changed {
		s.InvalidateUnread(ctx, actor.UserID)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	actor, err := s.viewer(ctx)
	if err != nil {
		return 0, err
	}
	count, err := s.notificationRepo.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, err
	}
	s.InvalidateUnread(ctx, actor.UserID)
	return count, nil
}

func (s *NotificationService) InvalidateUnread(ctx context.Context, userID uuid.UUID) {
	if err := s.cacheRepo.Del(ctx, unreadCountKeyPrefix+userID.String()); err != nil {
		s.logger.Warn("Не удалось сбросить кэш счётчика уведомлений", zap.Error(err))
	}
}

func (s *NotificationService) viewer(ctx context.Context) (*authz.Actor, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.NotificationsView, authz.Context{Actor: actor}) {
		return nil, apperrors.ErrForbidden
	}
	return actor, nil
}
