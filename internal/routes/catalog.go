package routes

import (
	"github.com/labstack/echo/v4"

	"antares-helpdesk/internal/controllers"
)

func runCatalogRouter(
	secure *echo.Group,
	categoryController *controllers.CategoryController,
	tagController *controllers.TagController,
	ticketController *controllers.TicketController,
	userTagController *controllers.UserTagController,
) {
	categories := secure.Group("/categories")
	categories.GET("", categoryController.List)
	categories.POST("", categoryController.Create)
	categories.GET("/:id", categoryController.Get)
	categories.PUT("/:id", categoryController.Update)
	categories.PATCH("/:id", categoryController.Update)
	categories.DELETE("/:id", categoryController.Delete)

	tags := secure.Group("/tags")
	tags.GET("", tagController.List)
	tags.POST("", tagController.Create)
	tags.GET("/:id", tagController.Get)
	tags.PUT("/:id", tagController.Update)
	tags.DELETE("/:id", tagController.Delete)
	tags.GET("/:id/tickets", ticketController.ListByTag)

	userTags := secure.Group("/user_tags")
	userTags.GET("", userTagController.List)
	userTags.POST("", userTagController.Create)
	userTags.PUT("/:id", userTagController.Update)
	userTags.DELETE("/:id", userTagController.Delete)
}
