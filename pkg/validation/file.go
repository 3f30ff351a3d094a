package validation

import (
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"antares-helpdesk/config"
	apperrors "antares-helpdesk/pkg/errors"
)

// ValidateFile проверяет размер и реальный MIME-тип файла по сигнатуре.
// contextName - ключ из config.UploadContexts.
// Возвращает определённый тип без параметров (например, "application/pdf").
func ValidateFile(size int64, file io.ReadSeeker, contextName string) (string, error) {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return "", fmt.Errorf("внутренняя ошибка: неизвестный контекст загрузки '%s'", contextName)
	}

	if size <= 0 {
		return "", apperrors.NewStorageError(apperrors.ErrBadRequest, "archivo vacío")
	}
	if rules.MaxSizeMB > 0 {
		maxSizeBytes := rules.MaxSizeMB * 1024 * 1024
		if size > maxSizeBytes {
			return "", apperrors.NewStorageError(apperrors.ErrFileTooLarge,
				"%.2f MB, límite %d MB", float64(size)/1024/1024, rules.MaxSizeMB)
		}
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения файла: %w", err)
	}
	// Курсор возвращаем в начало, файл ещё будет записан в хранилище
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("ошибка обработки файла: %w", err)
	}

	if allowed, ok := matchAllowed(mtype, rules.AllowedMimeTypes); ok {
		return allowed, nil
	}
	return "", apperrors.NewStorageError(apperrors.ErrFileTypeNotAllowed, "%s", mtype.String())
}

// matchAllowed поднимается по иерархии mimetype: docx и xlsx
// определяются как наследники zip, doc и xls как наследники OLE.
func matchAllowed(mtype *mimetype.MIME, allowed []string) (string, bool) {
	for m := mtype; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return a, true
			}
		}
	}
	return "", false
}
