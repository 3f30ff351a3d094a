package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
	apperrors "antares-helpdesk/pkg/errors"
)

type AttachmentController struct {
	attachmentService services.AttachmentServiceInterface
	logger            *zap.Logger
}

func NewAttachmentController(
	attachmentService services.AttachmentServiceInterface,
	logger *zap.Logger,
) *AttachmentController {
	return &AttachmentController{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

func (ctrl *AttachmentController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

// Create принимает multipart с полем file и необязательным message_id.
func (ctrl *AttachmentController) Create(c echo.Context) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	var messageID *uint64
	if raw := c.FormValue("message_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return ctrl.errorResponse(c, apperrors.NewBadRequestError("message_id no válido"))
		}
		messageID = &id
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("No se ha enviado ningún archivo"))
	}
	file, closeFn, err := openUploadedFile(fileHeader)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	defer closeFn()

	attachment, err := ctrl.attachmentService.AddToTicket(c.Request().Context(), ticketID, messageID, file)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusCreated, "Archivo adjuntado", attachment)
}

func (ctrl *AttachmentController) ListByTicket(c echo.Context) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	list, err := ctrl.attachmentService.ListByTicket(c.Request().Context(), ticketID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Adjuntos obtenidos", list)
}

func (ctrl *AttachmentController) ListByMessage(c echo.Context) error {
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	list, err := ctrl.attachmentService.ListByMessage(c.Request().Context(), messageID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Adjuntos obtenidos", list)
}

func (ctrl *AttachmentController) SignedURL(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	signed, err := ctrl.attachmentService.SignedURL(c.Request().Context(), id)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Enlace generado", signed)
}

func (ctrl *AttachmentController) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.attachmentService.Delete(c.Request().Context(), id); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Archivo eliminado", nil)
}
