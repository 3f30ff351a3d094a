package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "antares-helpdesk/pkg/errors"
)

type Response[T any] struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Body    T                      `json:"body,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type ListBody[T any] struct {
	List       []T             `json:"list"`
	Pagination *PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	TotalCount uint64 `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

func SuccessOne[T any](c echo.Context, code int, message string, data T) error {
	return c.JSON(code, Response[T]{Status: true, Message: message, Body: data})
}

// NewPaginationMeta считает число страниц округлением вверх. limit=0 даёт 0 страниц.
func NewPaginationMeta(total uint64, page, limit int) *PaginationMeta {
	meta := &PaginationMeta{TotalCount: total, Page: page, Limit: limit}
	if limit > 0 {
		meta.TotalPages = int((total + uint64(limit) - 1) / uint64(limit))
	}
	return meta
}

// SuccessList всегда отдаёт list массивом, даже пустым.
func SuccessList[T any](c echo.Context, message string, list []T, total uint64, page, limit int) error {
	if list == nil {
		list = []T{}
	}
	return c.JSON(http.StatusOK, Response[ListBody[T]]{
		Status:  true,
		Message: message,
		Body:    ListBody[T]{List: list, Pagination: NewPaginationMeta(total, page, limit)},
	})
}

func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.StatusCode(err)
	msg := err.Error()
	var details map[string]interface{}

	var httpErr *apperrors.HttpError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &httpErr):
		msg = httpErr.Message
		details = httpErr.Details
	case errors.As(err, &validationErrs):
		code = http.StatusBadRequest
		msg = "Datos de entrada no válidos"
		details = validationDetails(validationErrs)
	case code == http.StatusInternalServerError:
		// Технические подробности наружу не отдаём
		msg = "Error interno del servidor"
	}

	if logger != nil {
		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", code),
			zap.Error(err),
		}
		if code >= http.StatusInternalServerError {
			logger.Error("Ошибка обработки запроса", fields...)
		} else {
			logger.Warn("Запрос отклонён", fields...)
		}
	}

	return c.JSON(code, Response[any]{
		Status:  false,
		Message: msg,
		Code:    apperrors.Code(err),
		Details: details,
	})
}

func validationDetails(errs validator.ValidationErrors) map[string]interface{} {
	out := make(map[string]interface{}, len(errs))
	for _, fe := range errs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[strings.ToLower(fe.Field())] = rule
	}
	return out
}
