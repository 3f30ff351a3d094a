package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
)

type TagController struct {
	tagService services.TagServiceInterface
	logger     *zap.Logger
}

func NewTagController(tagService services.TagServiceInterface, logger *zap.Logger) *TagController {
	return &TagController{tagService: tagService, logger: logger}
}

func (ctrl *TagController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *TagController) List(c echo.Context) error {
	tags, err := ctrl.tagService.List(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Etiquetas obtenidas", tags)
}

func (ctrl *TagController) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	tag, err := ctrl.tagService.Get(c.Request().Context(), id)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Etiqueta obtenida", tag)
}

func (ctrl *TagController) Create(c echo.Context) error {
	var payload dto.TagDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	tag, err := ctrl.tagService.Create(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Etiqueta creada", tag)
}

func (ctrl *TagController) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.TagDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	tag, err := ctrl.tagService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Etiqueta actualizada", tag)
}

func (ctrl *TagController) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.tagService.Delete(c.Request().Context(), id); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Etiqueta eliminada", nil)
}

func (ctrl *TagController) ListByTicket(c echo.Context) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	tags, err := ctrl.tagService.ListByTicket(c.Request().Context(), ticketID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Etiquetas del ticket", tags)
}

func (ctrl *TagController) AddToTicket(c echo.Context) error {
	ticketID, tagID, err := ticketTagParams(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.tagService.AddToTicket(c.Request().Context(), ticketID, tagID); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Etiqueta añadida", nil)
}

func (ctrl *TagController) RemoveFromTicket(c echo.Context) error {
	ticketID, tagID, err := ticketTagParams(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.tagService.RemoveFromTicket(c.Request().Context(), ticketID, tagID); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Etiqueta eliminada", nil)
}

func ticketTagParams(c echo.Context) (uint64, uint64, error) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	tagID, err := parseIDParam(c, "tag_id")
	if err != nil {
		return 0, 0, err
	}
	return ticketID, tagID, nil
}
