package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
)

type TicketHistoryController struct {
	historyService services.TicketHistoryServiceInterface
	logger         *zap.Logger
}

func NewTicketHistoryController(historyService services.TicketHistoryServiceInterface, logger *zap.Logger) *TicketHistoryController {
	return &TicketHistoryController{historyService: historyService, logger: logger}
}

func (ctrl *TicketHistoryController) List(c echo.Context) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	history, err := ctrl.historyService.List(c.Request().Context(), ticketID)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "Historial obtenido", history)
}
