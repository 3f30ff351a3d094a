package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
)

const defaultNotificationsLimit = 50

type NotificationController struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
}

func NewNotificationController(notificationService services.NotificationServiceInterface, logger *zap.Logger) *NotificationController {
	return &NotificationController{notificationService: notificationService, logger: logger}
}

func (ctrl *NotificationController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *NotificationController) List(c echo.Context) error {
	limit := uint64(defaultNotificationsLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		if l, err := strconv.ParseUint(raw, 10, 64); err == nil && l > 0 {
			limit = l
		}
	}
	list, err := ctrl.notificationService.List(c.Request().Context(), limit)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Notificaciones obtenidas", list)
}

func (ctrl *NotificationController) ListUnread(c echo.Context) error {
	list, err := ctrl.notificationService.ListUnread(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Notificaciones sin leer", list)
}

func (ctrl *NotificationController) UnreadCount(c echo.Context) error {
	count, err := ctrl.notificationService.UnreadCount(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Contador obtenido", dto.UnreadCountDTO{Count: count})
}

func (ctrl *NotificationController) MarkRead(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.notificationService.MarkRead(c.Request().Context(), id); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Notificación marcada como leída", nil)
}

func (ctrl *NotificationController) MarkAllRead(c echo.Context) error {
	updated, err := ctrl.notificationService.MarkAllRead(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Notificaciones marcadas como leídas", dto.UnreadCountDTO{Count: updated})
}

// Notify - прямая отправка администратором, через тот же outbox.
func (ctrl *NotificationController) Notify(c echo.Context) error {
	var payload dto.SendNotificationDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.notificationService.Notify(c.Request().Context(), payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusAccepted, "Notificación en cola", nil)
}
