package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
)

type UserTagController struct {
	userTagService services.UserTagServiceInterface
	logger         *zap.Logger
}

func NewUserTagController(userTagService services.UserTagServiceInterface, logger *zap.Logger) *UserTagController {
	return &UserTagController{userTagService: userTagService, logger: logger}
}

func (ctrl *UserTagController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *UserTagController) List(c echo.Context) error {
	tags, err := ctrl.userTagService.List(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Etiquetas de usuario obtenidas", tags)
}

func (ctrl *UserTagController) Create(c echo.Context) error {
	var payload dto.TagDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	tag, err := ctrl.userTagService.Create(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Etiqueta de usuario creada", tag)
}

func (ctrl *UserTagController) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.TagDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	tag, err := ctrl.userTagService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Etiqueta de usuario actualizada", tag)
}

func (ctrl *UserTagController) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.userTagService.Delete(c.Request().Context(), id); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Etiqueta de usuario eliminada", nil)
}

func (ctrl *UserTagController) ListByUser(c echo.Context) error {
	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	tags, err := ctrl.userTagService.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Etiquetas del usuario", tags)
}

func (ctrl *UserTagController) Assign(c echo.Context) error {
	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	tagID, err := parseIDParam(c, "user_tag_id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.userTagService.Assign(c.Request().Context(), userID, tagID); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Etiqueta asignada", nil)
}

func (ctrl *UserTagController) Unassign(c echo.Context) error {
	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	tagID, err := parseIDParam(c, "user_tag_id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.userTagService.Unassign(c.Request().Context(), userID, tagID); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Etiqueta retirada", nil)
}
