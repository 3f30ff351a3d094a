package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
)

type MessageController struct {
	messageService services.MessageServiceInterface
	logger         *zap.Logger
}

func NewMessageController(messageService services.MessageServiceInterface, logger *zap.Logger) *MessageController {
	return &MessageController{messageService: messageService, logger: logger}
}

func (ctrl *MessageController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *MessageController) List(c echo.Context) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	messages, err := ctrl.messageService.List(c.Request().Context(), ticketID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Mensajes obtenidos", messages)
}

func (ctrl *MessageController) Create(c echo.Context) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.CreateMessageDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	message, err := ctrl.messageService.Create(c.Request().Context(), ticketID, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Mensaje enviado", message)
}

func (ctrl *MessageController) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.messageService.Delete(c.Request().Context(), id); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Mensaje eliminado", nil)
}
