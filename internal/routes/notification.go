package routes

import (
	"github.com/labstack/echo/v4"

	"antares-helpdesk/internal/controllers"
)

func runNotificationRouter(secure *echo.Group, ctrl *controllers.NotificationController) {
	notifications := secure.Group("/notifications")
	notifications.GET("", ctrl.List)
	notifications.POST("", ctrl.Notify)
	notifications.GET("/unread", ctrl.ListUnread)
	notifications.GET("/unread/count", ctrl.UnreadCount)
	notifications.PATCH("/:id/read", ctrl.MarkRead)
	notifications.POST("/read-all", ctrl.MarkAllRead)
}
