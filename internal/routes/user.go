package routes

import (
	"github.com/labstack/echo/v4"

	"antares-helpdesk/internal/controllers"
)

func runUserRouter(secure *echo.Group, userController *controllers.UserController, userTagController *controllers.UserTagController) {
	users := secure.Group("/users")
	users.GET("", userController.List)
	users.GET("/:id", userController.Get)
	users.PATCH("/:id/role", userController.UpdateRole)

	users.GET("/:id/user_tags", userTagController.ListByUser)
	users.POST("/:id/user_tags/:user_tag_id", userTagController.Assign)
	users.DELETE("/:id/user_tags/:user_tag_id", userTagController.Unassign)
}
