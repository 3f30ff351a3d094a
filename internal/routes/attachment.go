package routes

import (
	"github.com/labstack/echo/v4"

	"antares-helpdesk/internal/controllers"
)

// runAttachmentRouter - объект по подписанной ссылке отдаётся без сессии,
// доступ подтверждает сам токен ссылки.
func runAttachmentRouter(
	public, secure *echo.Group,
	attachmentController *controllers.AttachmentController,
	storageController *controllers.StorageController,
) {
	secure.GET("/messages/:id/attachments", attachmentController.ListByMessage)
	secure.GET("/attachments/:id/signed-url", attachmentController.SignedURL)
	secure.DELETE("/attachments/:id", attachmentController.Delete)

	secure.POST("/storage/:bucket/upload", storageController.Upload)
	public.GET("/storage/:bucket/object", storageController.Object)
}
