package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"antares-helpdesk/config"
	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	appconfig "antares-helpdesk/pkg/config"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/filestorage"
	"antares-helpdesk/pkg/service"
	"antares-helpdesk/pkg/utils"
	"antares-helpdesk/pkg/validation"
)

// UploadedFile - файл из multipart-запроса.
type UploadedFile struct {
	Name    string
	Size    int64
	Content io.ReadSeeker
}

type AttachmentServiceInterface interface {
	Upload(ctx context.Context, bucket string, file UploadedFile) (string, error)
	AddToTicket(ctx context.Context, ticketID uint64, messageID *uint64, file UploadedFile) (*entities.Attachment, error)
	ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Attachment, error)
	ListByMessage(ctx context.Context, messageID uint64) ([]entities.Attachment, error)
	SignedURL(ctx context.Context, id uint64) (*dto.SignedURLDTO, error)
	OpenSigned(ctx context.Context, bucket, token string) (*os.File, error)
	Delete(ctx context.Context, id uint64) error
}

type AttachmentService struct {
	txManager      repositories.TxManagerInterface
	attachmentRepo repositories.AttachmentRepositoryInterface
	ticketRepo     repositories.TicketRepositoryInterface
	messageRepo    repositories.MessageRepositoryInterface
	historyRepo    repositories.TicketHistoryRepositoryInterface
	storage        filestorage.FileStorageInterface
	jwtService     service.JWTService
	cfg            appconfig.StorageConfig
	logger         *zap.Logger
}

func NewAttachmentService(
	txManager repositories.TxManagerInterface,
	attachmentRepo repositories.AttachmentRepositoryInterface,
	ticketRepo repositories.TicketRepositoryInterface,
	messageRepo repositories.MessageRepositoryInterface,
	historyRepo repositories.TicketHistoryRepositoryInterface,
	storage filestorage.FileStorageInterface,
	jwtService service.JWTService,
	cfg appconfig.StorageConfig,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		txManager:      txManager,
		attachmentRepo: attachmentRepo,
		ticketRepo:     ticketRepo,
		messageRepo:    messageRepo,
		historyRepo:    historyRepo,
		storage:        storage,
		jwtService:     jwtService,
		cfg:            cfg,
		logger:         logger,
	}
}

// Upload сохраняет файл в бакет и возвращает путь объекта (для attachment_url сообщений).
func (s *AttachmentService) Upload(ctx context.Context, bucket string, file UploadedFile) (string, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return "", err
	}
	if !authz.CanDo(authz.AttachmentsCreate, authz.Context{Actor: actor}) {
		return "", apperrors.ErrForbidden
	}
	uploadContext, ok := config.BucketContexts[bucket]
	if !ok {
		return "", apperrors.ErrUnknownStorageScope
	}

	// Проверка размера и типа строго до записи в хранилище
	if _, err := validation.ValidateFile(file.Size, file.Content, uploadContext); err != nil {
		return "", err
	}
	return s.storage.Save(bucket, actor.UserID.String(), file.Content, file.Name)
}

func (s *AttachmentService) AddToTicket(ctx context.Context, ticketID uint64, messageID *uint64, file UploadedFile) (*entities.Attachment, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.AttachmentsCreate, authz.Context{Actor: actor, Target: ticket}) {
		return nil, apperrors.ErrForbidden
	}

	bucket := config.BucketTicketAttachments
	if messageID != nil {
		message, err := s.messageRepo.FindByID(ctx, *messageID)
		if err != nil {
			return nil, err
		}
		if message.TicketID != ticketID {
			return nil, apperrors.NewInvalidInputError("el mensaje no pertenece a este ticket")
		}
		bucket = config.BucketMessageAttachments
	}

	mimeType, err := validation.ValidateFile(file.Size, file.Content, config.BucketContexts[bucket])
	if err != nil {
		return nil, err
	}
	path, err := s.storage.Save(bucket, actor.UserID.String(), file.Content, file.Name)
	if err != nil {
		return nil, err
	}

	attachment := &entities.Attachment{
		TicketID:   &ticketID,
		MessageID:  messageID,
		FileName:   filepath.Base(file.Name),
		FilePath:   path,
		FileSize:   file.Size,
		FileType:   mimeType,
		UploadedBy: actor.UserID,
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.attachmentRepo.Create(ctx, tx, attachment); err != nil {
			return err
		}
		return s.historyRepo.Create(ctx, tx, historyEntry(ticketID, actor.UserID, entities.HistoryAttachmentAdded,
			"attachment", "", attachment.FileName, fmt.Sprintf("Archivo adjunto: %s", attachment.FileName)))
	})
	if err != nil {
		if delErr := s.storage.Delete(bucket, path); delErr != nil {
			s.logger.Error("Не удалось удалить файл после ошибки записи", zap.String("path", path), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("Вложение добавлено", zap.Uint64("ticketID", ticketID), zap.Uint64("attachmentID", attachment.ID))
	return attachment, nil
}

func (s *AttachmentService) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Attachment, error) {
	if _, err := s.readableTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByTicket(ctx, ticketID)
}

func (s *AttachmentService) ListByMessage(ctx context.Context, messageID uint64) ([]entities.Attachment, error) {
	message, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.readableTicket(ctx, message.TicketID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByMessage(ctx, messageID)
}

func (s *AttachmentService) readableTicket(ctx context.Context, ticketID uint64) (*entities.Ticket, error) {
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
	return ticket, nil
}

// ticketOf - тикет вложения: напрямую или через сообщение.
func (s *AttachmentService) ticketOf(ctx context.Context, a *entities.Attachment) (uint64, error) {
	if a.TicketID != nil {
		return *a.TicketID, nil
	}
	message, err := s.messageRepo.FindByID(ctx, *a.MessageID)
	if err != nil {
		return 0, err
	}
	return message.TicketID, nil
}

func bucketOf(a *entities.Attachment) string {
	if a.MessageID != nil {
		return config.BucketMessageAttachments
	}
	return config.BucketTicketAttachments
}

func (s *AttachmentService) SignedURL(ctx context.Context, id uint64) (*dto.SignedURLDTO, error) {
	attachment, err := s.attachmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ticketID, err := s.ticketOf(ctx, attachment)
	if err != nil {
		return nil, err
	}
	if _, err := s.readableTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	bucket := bucketOf(attachment)
	token, expiresAt, err := s.jwtService.GenerateStorageToken(bucket, attachment.FilePath, s.cfg.SignedURLTTL)
	if err != nil {
		return nil, err
	}
	return &dto.SignedURLDTO{
		URL:       fmt.Sprintf("%s/api/storage/%s/object?token=%s", s.cfg.PublicURL, bucket, url.QueryEscape(token)),
		ExpiresAt: expiresAt,
	}, nil
}

// OpenSigned открывает объект по подписанному токену; сессия не требуется.
func (s *AttachmentService) OpenSigned(_ context.Context, bucket, token string) (*os.File, error) {
	path, err := s.jwtService.ValidateStorageToken(token, bucket)
	if err != nil {
		return nil, err
	}
	return s.storage.Open(bucket, path)
}

func (s *AttachmentService) Delete(ctx context.Context, id uint64) error {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return err
	}
	attachment, err := s.attachmentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	ticketID, err := s.ticketOf(ctx, attachment)
	if err != nil {
		return err
	}
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.AttachmentsDelete, authz.Context{Actor: actor, Target: ticket}) {
		return apperrors.ErrForbidden
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.attachmentRepo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.historyRepo.Create(ctx, tx, historyEntry(ticketID, actor.UserID, entities.HistoryAttachmentDeleted,
			"attachment", attachment.FileName, "", fmt.Sprintf("Archivo eliminado: %s", attachment.FileName)))
	})
	if err != nil {
		return err
	}
	// Файл удаляется только после коммита транзакции
	if err := s.storage.Delete(bucketOf(attachment), attachment.FilePath); err != nil {
		s.logger.Warn("Не удалось удалить файл вложения", zap.String("path", attachment.FilePath), zap.Error(err))
	}
	s.logger.Info("Вложение удалено", zap.Uint64("attachmentID", id), zap.String("actor", actor.UserID.String()))
	return nil
}
