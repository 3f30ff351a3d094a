package services

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"antares-helpdesk/config"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/filestorage"
)

type storedObject struct {
	bucket string
	path   string
}

// StoredFiles связывает строки тикетов и сообщений с объектами хранилища:
// собирает файлы до удаления строк и чистит хранилище после коммита.
type StoredFiles struct {
	attachmentRepo repositories.AttachmentRepositoryInterface
	messageRepo    repositories.MessageRepositoryInterface
	storage        filestorage.FileStorageInterface
	logger         *zap.Logger
}

func NewStoredFiles(
	attachmentRepo repositories.AttachmentRepositoryInterface,
	messageRepo repositories.MessageRepositoryInterface,
	storage filestorage.FileStorageInterface,
	logger *zap.Logger,
) *StoredFiles {
	return &StoredFiles{
		attachmentRepo: attachmentRepo,
		messageRepo:    messageRepo,
		storage:        storage,
		logger:         logger,
	}
}

// ofTicket - вложения тикета и файлы из attachment_url его сообщений.
func (f *StoredFiles) ofTicket(ctx context.Context, ticketID uint64) ([]storedObject, error) {
	attachments, err := f.attachmentRepo.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	messages, err := f.messageRepo.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	objects := attachmentObjects(attachments)
	for i := range messages {
		objects = append(objects, messageURLObject(&messages[i])...)
	}
	return dedupeObjects(objects), nil
}

func (f *StoredFiles) ofMessage(ctx context.Context, message *entities.Message) ([]storedObject, error) {
	attachments, err := f.attachmentRepo.ListByMessage(ctx, message.ID)
	if err != nil {
		return nil, err
	}
	objects := append(attachmentObjects(attachments), messageURLObject(message)...)
	return dedupeObjects(objects), nil
}

// remove вызывается после коммита: строки уже удалены, ошибка хранилища только логируется.
func (f *StoredFiles) remove(objects []storedObject) {
	for _, o := range objects {
		if err := f.storage.Delete(o.bucket, o.path); err != nil {
			f.logger.Warn("Не удалось удалить файл из хранилища",
				zap.String("bucket", o.bucket),
				zap.String("path", o.path),
				zap.Error(err),
			)
		}
	}
}

// verifyMessageUpload - attachment_url сообщения должен указывать на файл,
// который этот же пользователь загрузил в бакет вложений сообщений.
func (f *StoredFiles) verifyMessageUpload(ownerID uuid.UUID, objectPath string) error {
	if objectPath == "" || strings.Contains(objectPath, "..") || path.Clean(objectPath) != objectPath ||
		!strings.HasPrefix(objectPath, ownerID.String()+"/") {
		return apperrors.NewInvalidInputError("attachment_url no corresponde a un archivo subido por el usuario")
	}
	ok, err := f.storage.Exists(config.BucketMessageAttachments, objectPath)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewInvalidInputError("el archivo adjunto no existe")
	}
	return nil
}

func attachmentObjects(attachments []entities.Attachment) []storedObject {
	objects := make([]storedObject, 0, len(attachments))
	for i := range attachments {
		objects = append(objects, storedObject{bucket: bucketOf(&attachments[i]), path: attachments[i].FilePath})
	}
	return objects
}

func messageURLObject(m *entities.Message) []storedObject {
	if !m.AttachmentURL.Valid || m.AttachmentURL.String == "" {
		return nil
	}
	return []storedObject{{bucket: config.BucketMessageAttachments, path: m.AttachmentURL.String}}
}

func dedupeObjects(objects []storedObject) []storedObject {
	seen := make(map[storedObject]struct{}, len(objects))
	out := objects[:0]
	for _, o := range objects {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
