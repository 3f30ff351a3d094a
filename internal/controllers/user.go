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

type UserController struct {
	userService services.UserServiceInterface
	logger      *zap.Logger
}

func NewUserController(userService services.UserServiceInterface, logger *zap.Logger) *UserController {
	return &UserController{userService: userService, logger: logger}
}

func (ctrl *UserController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

// List - ?role=&search= и пагинация.
func (ctrl *UserController) List(c echo.Context) error {
	limit, offset, page := utils.ParsePaginationParams(c.QueryParams())
	users, total, err := ctrl.userService.List(c.Request().Context(), c.QueryParam("role"), c.QueryParam("search"), limit, offset)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessList(c, "Usuarios obtenidos", users, total, int(page), int(limit))
}

func (ctrl *UserController) Get(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	profile, err := ctrl.userService.Get(c.Request().Context(), id)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Usuario obtenido", profile)
}

func (ctrl *UserController) UpdateRole(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.UpdateUserRoleDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	profile, err := ctrl.userService.UpdateRole(c.Request().Context(), id, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Rol actualizado", profile)
}
