package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
	"antares-helpdesk/pkg/utils"
)

type FeedbackController struct {
	feedbackService services.FeedbackServiceInterface
	logger          *zap.Logger
}

func NewFeedbackController(feedbackService services.FeedbackServiceInterface, logger *zap.Logger) *FeedbackController {
	return &FeedbackController{feedbackService: feedbackService, logger: logger}
}

func (ctrl *FeedbackController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *FeedbackController) Create(c echo.Context) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.CreateFeedbackDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	feedback, err := ctrl.feedbackService.Create(c.Request().Context(), ticketID, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Gracias por tu valoración", feedback)
}

func (ctrl *FeedbackController) GetByTicket(c echo.Context) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	feedback, err := ctrl.feedbackService.GetByTicket(c.Request().Context(), ticketID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Valoración obtenida", feedback)
}

func (ctrl *FeedbackController) List(c echo.Context) error {
	limit, offset, page := utils.ParsePaginationParams(c.QueryParams())
	list, total, err := ctrl.feedbackService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessList(c, "Valoraciones obtenidas", list, total, int(page), int(limit))
}

func (ctrl *FeedbackController) Stats(c echo.Context) error {
	stats, err := ctrl.feedbackService.Stats(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Estadísticas obtenidas", stats)
}
