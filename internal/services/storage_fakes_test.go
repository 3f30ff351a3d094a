package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"antares-helpdesk/config"
	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/filestorage"
)

var errInsertFailed = errors.New("insert failed")

// --- attachments ---

type fakeAttachmentRepo struct {
	db *memDB
	// createErr возвращается из Create вместо вставки
	createErr error
}

func (r *fakeAttachmentRepo) Create(ctx context.Context, tx pgx.Tx, attachment *entities.Attachment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	attachment.ID = r.db.nextID()
	attachment.CreatedAt = r.db.tick()
	stored := *attachment
	r.db.attachments[attachment.ID] = &stored
	return nil
}

func (r *fakeAttachmentRepo) FindByID(ctx context.Context, id uint64) (*entities.Attachment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.attachments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAttachmentRepo) list(match func(a *entities.Attachment) bool) []entities.Attachment {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.Attachment
	for _, a := range r.db.attachments {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeAttachmentRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Attachment, error) {
	return r.list(func(a *entities.Attachment) bool { return a.TicketID != nil && *a.TicketID == ticketID }), nil
}

func (r *fakeAttachmentRepo) ListByMessage(ctx context.Context, messageID uint64) ([]entities.Attachment, error) {
	return r.list(func(a *entities.Attachment) bool { return a.MessageID != nil && *a.MessageID == messageID }), nil
}

func (r *fakeAttachmentRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.attachments[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.db.attachments, id)
	return nil
}

// --- storage ---

// recordingStorage - настоящее локальное хранилище во временной директории,
// которое запоминает вызовы Save и Delete.
type recordingStorage struct {
	filestorage.FileStorageInterface

	saves     []string
	deletes   []string
	deleteErr error
	// onDelete видит состояние memDB в момент удаления файла
	onDelete func(bucket, objectPath string)
}

func newRecordingStorage(t *testing.T) *recordingStorage {
	t.Helper()
	inner, err := filestorage.NewLocalFileStorage(t.TempDir(),
		config.BucketTicketAttachments, config.BucketMessageAttachments)
	require.NoError(t, err)
	return &recordingStorage{FileStorageInterface: inner}
}

func (s *recordingStorage) Save(bucket, ownerID string, file io.Reader, originalFileName string) (string, error) {
	s.saves = append(s.saves, bucket+":"+originalFileName)
	return s.FileStorageInterface.Save(bucket, ownerID, file, originalFileName)
}

func (s *recordingStorage) Delete(bucket, objectPath string) error {
	s.deletes = append(s.deletes, bucket+":"+objectPath)
	if s.onDelete != nil {
		s.onDelete(bucket, objectPath)
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.FileStorageInterface.Delete(bucket, objectPath)
}

// put кладёт объект в обход записи вызовов, как будто его загрузили раньше.
func (s *recordingStorage) put(t *testing.T, bucket, ownerID, name, content string) string {
	t.Helper()
	path, err := s.FileStorageInterface.Save(bucket, ownerID, strings.NewReader(content), name)
	require.NoError(t, err)
	return path
}

func (s *recordingStorage) exists(t *testing.T, bucket, path string) bool {
	t.Helper()
	ok, err := s.Exists(bucket, path)
	require.NoError(t, err)
	return ok
}
