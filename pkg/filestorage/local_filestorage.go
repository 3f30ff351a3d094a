package filestorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "antares-helpdesk/pkg/errors"
)

// FileStorageInterface - объектное хранилище, разбитое на бакеты.
type FileStorageInterface interface {
	Save(bucket, ownerID string, file io.Reader, originalFileName string) (objectPath string, err error)
	Open(bucket, objectPath string) (*os.File, error)
	Exists(bucket, objectPath string) (bool, error)
	Delete(bucket, objectPath string) error
}

type LocalFileStorage struct {
	basePath string
	buckets  map[string]struct{}
	now      func() time.Time
}

func NewLocalFileStorage(basePath string, buckets ...string) (FileStorageInterface, error) {
	known := make(map[string]struct{}, len(buckets))
	for _, b := range buckets {
		if err := os.MkdirAll(filepath.Join(basePath, b), 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию бакета %s: %w", b, err)
		}
		known[b] = struct{}{}
	}
	return &LocalFileStorage{basePath: basePath, buckets: known, now: time.Now}, nil
}

// Save пишет объект по пути {ownerID}/{дата}/{timestamp}-{uuid}{ext} внутри бакета.
func (s *LocalFileStorage) Save(bucket, ownerID string, file io.Reader, originalFileName string) (string, error) {
	if _, ok := s.buckets[bucket]; !ok {
		return "", apperrors.ErrUnknownStorageScope
	}

	now := s.now()
	ext := strings.ToLower(filepath.Ext(originalFileName))
	uniqueFileName := fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), ext)
	objectDir := filepath.Join(ownerID, now.Format("2006-01-02"))

	fullDirPath := filepath.Join(s.basePath, bucket, objectDir)
	if err := os.MkdirAll(fullDirPath, 0o755); err != nil {
		return "", apperrors.NewStorageError(err, "mkdir")
	}

	dst, err := os.Create(filepath.Join(fullDirPath, uniqueFileName))
	if err != nil {
		return "", apperrors.NewStorageError(err, "create")
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		_ = os.Remove(dst.Name())
		return "", apperrors.NewStorageError(err, "write")
	}

	return filepath.ToSlash(filepath.Join(objectDir, uniqueFileName)), nil
}

func (s *LocalFileStorage) Open(bucket, objectPath string) (*os.File, error) {
	fullPath, err := s.resolve(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if os.IsNotExist(err) {
		return nil, apperrors.ErrNotFound
	}
	return f, err
}

// Exists - есть ли в бакете обычный файл по этому пути.
func (s *LocalFileStorage) Exists(bucket, objectPath string) (bool, error) {
	fullPath, err := s.resolve(bucket, objectPath)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStorageError(err, "stat")
	}
	return info.Mode().IsRegular(), nil
}

// Delete удаляет объект. Отсутствующий файл считается удалённым.
func (s *LocalFileStorage) Delete(bucket, objectPath string) error {
	fullPath, err := s.resolve(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return apperrors.NewStorageError(err, "delete")
	}
	return nil
}

func (s *LocalFileStorage) resolve(bucket, objectPath string) (string, error) {
	if _, ok := s.buckets[bucket]; !ok {
		return "", apperrors.ErrUnknownStorageScope
	}
	clean := filepath.Clean("/" + filepath.FromSlash(objectPath))
	if clean == string(filepath.Separator) || strings.Contains(objectPath, "..") {
		return "", apperrors.ErrBadRequest
	}
	return filepath.Join(s.basePath, bucket, clean), nil
}
