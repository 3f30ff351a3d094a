package controllers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

func parseIDParam(c echo.Context, name string) (uint64, error) {
	id, err := utils.ParseUint64(c.Param(name))
	if err != nil || id == 0 {
		return 0, apperrors.NewBadRequestError("Identificador no válido: " + name)
	}
	return id, nil
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError("Identificador de usuario no válido")
	}
	return id, nil
}

// bindAndValidate - разбор тела запроса и проверка правил validator.
func bindAndValidate(c echo.Context, payload interface{}) error {
	if err := c.Bind(payload); err != nil {
		return apperrors.NewBadRequestError("Formato de datos no válido")
	}
	return c.Validate(payload)
}

func permissionsOf(p *entities.Profile) []string {
	if p == nil {
		return []string{}
	}
	return authz.PermissionList(p.Role)
}
