package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
)

type CategoryController struct {
	categoryService services.CategoryServiceInterface
	logger          *zap.Logger
}

func NewCategoryController(categoryService services.CategoryServiceInterface, logger *zap.Logger) *CategoryController {
	return &CategoryController{categoryService: categoryService, logger: logger}
}

func (ctrl *CategoryController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

// List поддерживает фильтр ?type=ticket|user.
func (ctrl *CategoryController) List(c echo.Context) error {
	var categoryType *entities.CategoryType
	if raw := c.QueryParam("type"); raw != "" {
		t := entities.CategoryType(raw)
		categoryType = &t
	}
	list, err := ctrl.categoryService.List(c.Request().Context(), categoryType)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Categorías obtenidas", list)
}

func (ctrl *CategoryController) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	category, err := ctrl.categoryService.Get(c.Request().Context(), id)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Categoría obtenida", category)
}

func (ctrl *CategoryController) Create(c echo.Context) error {
	var payload dto.CreateCategoryDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	category, err := ctrl.categoryService.Create(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Categoría creada", category)
}

func (ctrl *CategoryController) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.UpdateCategoryDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	category, err := ctrl.categoryService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Categoría actualizada", category)
}

func (ctrl *CategoryController) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.categoryService.Delete(c.Request().Context(), id); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Categoría eliminada", nil)
}
