package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
	apperrors "antares-helpdesk/pkg/errors"
)

// StorageController - загрузка в бакет и выдача объекта по подписанной ссылке.
type StorageController struct {
	attachmentService services.AttachmentServiceInterface
	logger            *zap.Logger
}

func NewStorageController(attachmentService services.AttachmentServiceInterface, logger *zap.Logger) *StorageController {
	return &StorageController{attachmentService: attachmentService, logger: logger}
}

func (ctrl *StorageController) Upload(c echo.Context) error {
	bucket := c.Param("bucket")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return api.ErrorResponse(c, apperrors.NewBadRequestError("No se ha enviado ningún archivo"), ctrl.logger)
	}
	file, closeFn, err := openUploadedFile(fileHeader)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	defer closeFn()

	path, err := ctrl.attachmentService.Upload(c.Request().Context(), bucket, file)
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "Archivo subido", dto.UploadResponseDTO{Path: path})
}

// Object отдаёт файл, если токен из signed-url действителен для этого бакета.
func (ctrl *StorageController) Object(c echo.Context) error {
	f, err := ctrl.attachmentService.OpenSigned(c.Request().Context(), c.Param("bucket"), c.QueryParam("token"))
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}
	http.ServeContent(c.Response(), c.Request(), info.Name(), info.ModTime(), f)
	return nil
}

func openUploadedFile(fileHeader *multipart.FileHeader) (services.UploadedFile, func(), error) {
	src, err := fileHeader.Open()
	if err != nil {
		return services.UploadedFile{}, nil, apperrors.NewHttpError(
			http.StatusBadRequest,
			"No se pudo leer el archivo",
			apperrors.ErrBadRequest,
			nil,
		)
	}
	file := services.UploadedFile{
		Name:    fileHeader.Filename,
		Size:    fileHeader.Size,
		Content: src,
	}
	return file, func() { _ = src.Close() }, nil
}
