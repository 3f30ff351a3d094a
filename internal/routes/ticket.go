package routes

import (
	"github.com/labstack/echo/v4"

	"antares-helpdesk/internal/controllers"
	"antares-helpdesk/internal/entities"
)

type ticketControllers struct {
	ticket     *controllers.TicketController
	message    *controllers.MessageController
	history    *controllers.TicketHistoryController
	feedback   *controllers.FeedbackController
	tag        *controllers.TagController
	attachment *controllers.AttachmentController
}

func runTicketRouter(secure *echo.Group, c ticketControllers) {
	tickets := secure.Group("/tickets")
	tickets.GET("", c.ticket.List)
	tickets.POST("", c.ticket.Create)
	tickets.GET("/mine", c.ticket.ListScope(entities.ScopeMine))
	tickets.GET("/all", c.ticket.ListScope(entities.ScopeAll))
	tickets.GET("/open", c.ticket.ListScope(entities.ScopeOpen))
	tickets.GET("/closed", c.ticket.ListScope(entities.ScopeClosed))
	tickets.GET("/export", c.ticket.Export)

	tickets.GET("/:id", c.ticket.Get)
	tickets.PATCH("/:id", c.ticket.Update)
	tickets.PATCH("/:id/status", c.ticket.UpdateStatus)
	tickets.PATCH("/:id/assign", c.ticket.Assign)
	tickets.DELETE("/:id", c.ticket.Delete)
	tickets.GET("/:id/export", c.ticket.ExportOne)

	tickets.GET("/:id/messages", c.message.List)
	tickets.POST("/:id/messages", c.message.Create)
	tickets.GET("/:id/history", c.history.List)
	tickets.GET("/:id/feedback", c.feedback.GetByTicket)
	tickets.POST("/:id/feedback", c.feedback.Create)

	tickets.GET("/:id/tags", c.tag.ListByTicket)
	tickets.POST("/:id/tags/:tag_id", c.tag.AddToTicket)
	tickets.DELETE("/:id/tags/:tag_id", c.tag.RemoveFromTicket)

	tickets.GET("/:id/attachments", c.attachment.ListByTicket)
	tickets.POST("/:id/attachments", c.attachment.Create)

	secure.DELETE("/messages/:id", c.message.Delete)

	feedback := secure.Group("/feedback")
	feedback.GET("", c.feedback.List)
	feedback.GET("/stats", c.feedback.Stats)
}
