package errors

import (
	"errors"
	"fmt"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = errors.New("método de firma del token no válido")
	ErrInvalidToken         = errors.New("token no válido")
	ErrTokenExpired         = errors.New("el token ha expirado")
	ErrTokenNotYetValid     = errors.New("el token aún no es válido")
	ErrTokenRevoked         = errors.New("la sesión ha sido cerrada")
	ErrTokenIsNotRefresh    = errors.New("el token no es de refresco")
	ErrTokenIsNotAccess     = errors.New("el token no es de acceso")

	// Аутентификация
	ErrEmptyAuthHeader    = errors.New("falta el encabezado de autorización")
	ErrInvalidAuthHeader  = errors.New("formato de encabezado de autorización no válido")
	ErrInvalidCredentials = errors.New("correo o contraseña incorrectos")
	ErrEmailNotVerified   = errors.New("debes verificar tu correo electrónico antes de iniciar sesión")
	ErrAccountLocked      = errors.New("cuenta bloqueada temporalmente por demasiados intentos fallidos")
	ErrUnauthorized       = errors.New("sesión no válida o expirada")
	ErrEmailTaken         = errors.New("ya existe una cuenta con este correo")

	// Авторизация
	ErrForbidden = errors.New("no tienes permiso para realizar esta acción")

	// Контекст
	ErrActorNotFoundInContext = errors.New("no se encontró el usuario en el contexto de la solicitud")

	// Общие
	ErrNotFound        = errors.New("registro no encontrado")
	ErrBadRequest      = errors.New("solicitud no válida")
	ErrConflict        = errors.New("conflicto con el estado actual del recurso")
	ErrUnavailable     = errors.New("servicio temporalmente no disponible, inténtalo de nuevo")
	ErrVersionConflict = fmt.Errorf("el ticket fue modificado por otra persona, recarga e inténtalo de nuevo: %w", ErrConflict)

	// Доменные
	ErrTicketClosed        = fmt.Errorf("no se pueden enviar mensajes a un ticket cerrado: %w", ErrConflict)
	ErrFeedbackExists      = fmt.Errorf("ya has enviado una valoración para este ticket: %w", ErrConflict)
	ErrTicketNotClosed     = errors.New("solo se puede valorar un ticket cerrado")
	ErrFileTooLarge        = errors.New("el archivo supera el tamaño máximo permitido")
	ErrFileTypeNotAllowed  = errors.New("tipo de archivo no permitido")
	ErrUnknownStorageScope = errors.New("bucket de almacenamiento desconocido")
)

// InvalidInputError - ошибка валидации бизнес-правил (422).
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// StorageError оборачивает отказ хранилища: размер, тип файла или сбой записи.
type StorageError struct {
	Reason error
	Detail string
}

func (e *StorageError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason.Error(), e.Detail)
}

func (e *StorageError) Unwrap() error { return e.Reason }

func NewStorageError(reason error, format string, args ...interface{}) error {
	return &StorageError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
