package routes

import (
	"github.com/labstack/echo/v4"

	"antares-helpdesk/internal/controllers"
)

func runAuthRouter(public, secure *echo.Group, ctrl *controllers.AuthController) {
	auth := public.Group("/auth")
	auth.POST("/signup", ctrl.SignUp)
	auth.POST("/verify-email", ctrl.VerifyEmail)
	auth.POST("/resend-verification", ctrl.ResendVerification)
	auth.POST("/login", ctrl.Login)
	auth.POST("/refresh", ctrl.Refresh)

	secureAuth := secure.Group("/auth")
	secureAuth.POST("/logout", ctrl.Logout)
	secureAuth.GET("/session", ctrl.Session)
	secureAuth.GET("/me", ctrl.Me)
}
