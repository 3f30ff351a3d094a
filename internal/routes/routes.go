package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/controllers"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/config"
	"antares-helpdesk/pkg/middleware"
	"antares-helpdesk/pkg/websocket"
)

// Services - всё, что нужно роутеру от слоя сервисов.
type Services struct {
	Auth         services.AuthServiceInterface
	Ticket       services.TicketServiceInterface
	Export       services.ExportServiceInterface
	Message      services.MessageServiceInterface
	Attachment   services.AttachmentServiceInterface
	History      services.TicketHistoryServiceInterface
	Feedback     services.FeedbackServiceInterface
	Category     services.CategoryServiceInterface
	Tag          services.TagServiceInterface
	UserTag      services.UserTagServiceInterface
	User         services.UserServiceInterface
	Notification services.NotificationServiceInterface
}

func InitRouter(
	e *echo.Echo,
	svc Services,
	authMW *middleware.AuthMiddleware,
	hub *websocket.Hub,
	cfg *config.Config,
	logger *zap.Logger,
) {
	logger.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	secure := api.Group("", authMW.Auth)

	runAuthRouter(api, secure, controllers.NewAuthController(svc.Auth, cfg.JWT.RefreshTokenTTL, cfg.Server.SecureCookies, logger))
	runTicketRouter(secure, ticketControllers{
		ticket:     controllers.NewTicketController(svc.Ticket, svc.Export, logger),
		message:    controllers.NewMessageController(svc.Message, logger),
		history:    controllers.NewTicketHistoryController(svc.History, logger),
		feedback:   controllers.NewFeedbackController(svc.Feedback, logger),
		tag:        controllers.NewTagController(svc.Tag, logger),
		attachment: controllers.NewAttachmentController(svc.Attachment, logger),
	})
	runAttachmentRouter(api, secure,
		controllers.NewAttachmentController(svc.Attachment, logger),
		controllers.NewStorageController(svc.Attachment, logger),
	)
	runCatalogRouter(secure,
		controllers.NewCategoryController(svc.Category, logger),
		controllers.NewTagController(svc.Tag, logger),
		controllers.NewTicketController(svc.Ticket, svc.Export, logger),
		controllers.NewUserTagController(svc.UserTag, logger),
	)
	runUserRouter(secure,
		controllers.NewUserController(svc.User, logger),
		controllers.NewUserTagController(svc.UserTag, logger),
	)
	runNotificationRouter(secure, controllers.NewNotificationController(svc.Notification, logger))
	secure.GET("/ws", controllers.NewWebSocketController(hub, cfg.Server.AllowedOrigins, logger).ServeWs)

	logger.Info("InitRouter: Создание маршрутов завершено")
}
