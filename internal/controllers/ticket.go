package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
	"antares-helpdesk/pkg/utils"
)

type TicketController struct {
	ticketService services.TicketServiceInterface
	exportService services.ExportServiceInterface
	logger        *zap.Logger
}

func NewTicketController(
	ticketService services.TicketServiceInterface,
	exportService services.ExportServiceInterface,
	logger *zap.Logger,
) *TicketController {
	return &TicketController{
		ticketService: ticketService,
		exportService: exportService,
		logger:        logger,
	}
}

func (ctrl *TicketController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *TicketController) Create(c echo.Context) error {
	var payload dto.CreateTicketDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	ticket, err := ctrl.ticketService.Create(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Ticket creado", ticket)
}

// List - общий список, область определяется ролью.
func (ctrl *TicketController) List(c echo.Context) error {
	return ctrl.list(c, "")
}

// ListScope обслуживает /tickets/mine, /all, /open и /closed.
func (ctrl *TicketController) ListScope(scope entities.TicketScope) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ctrl.list(c, scope)
	}
}

func (ctrl *TicketController) list(c echo.Context, scope entities.TicketScope) error {
	var query dto.TicketListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := c.Validate(&query); err != nil {
		return ctrl.errorResponse(c, err)
	}
	limit, offset, page := utils.ParsePaginationParams(c.QueryParams())

	tickets, total, err := ctrl.ticketService.List(c.Request().Context(), scope, query, limit, offset)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessList(c, "Tickets obtenidos", tickets, total, int(page), int(limit))
}

func (ctrl *TicketController) ListByTag(c echo.Context) error {
	tagID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	limit, offset, page := utils.ParsePaginationParams(c.QueryParams())

	tickets, total, err := ctrl.ticketService.ListByTag(c.Request().Context(), tagID, limit, offset)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessList(c, "Tickets obtenidos", tickets, total, int(page), int(limit))
}

func (ctrl *TicketController) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	ticket, err := ctrl.ticketService.Get(c.Request().Context(), id)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Ticket obtenido", ticket)
}

func (ctrl *TicketController) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.UpdateTicketDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	ticket, err := ctrl.ticketService.Update(c.Request().Context(), id, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Ticket actualizado", ticket)
}

func (ctrl *TicketController) UpdateStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.UpdateTicketStatusDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	ticket, err := ctrl.ticketService.UpdateStatus(c.Request().Context(), id, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Estado actualizado", ticket)
}

func (ctrl *TicketController) Assign(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	var payload dto.AssignTicketDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	ticket, err := ctrl.ticketService.Assign(c.Request().Context(), id, payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Asignación actualizada", ticket)
}

func (ctrl *TicketController) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.ticketService.Delete(c.Request().Context(), id); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Ticket eliminado", nil)
}

func (ctrl *TicketController) Export(c echo.Context) error {
	scope := entities.TicketScope(c.QueryParam("scope"))
	workbook, err := ctrl.exportService.ExportTickets(c.Request().Context(), scope)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return respondWithWorkbook(c, workbook)
}

func (ctrl *TicketController) ExportOne(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	workbook, err := ctrl.exportService.ExportTicket(c.Request().Context(), id)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return respondWithWorkbook(c, workbook)
}

func respondWithWorkbook(c echo.Context, workbook *services.Workbook) error {
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+workbook.FileName)
	return c.Blob(http.StatusOK, services.XLSXContentType, workbook.Content.Bytes())
}
