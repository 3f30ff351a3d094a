package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/services"
	"antares-helpdesk/pkg/api"
	apperrors "antares-helpdesk/pkg/errors"
)

const refreshCookieName = "refreshToken"

type AuthController struct {
	authService     services.AuthServiceInterface
	refreshTokenTTL time.Duration
	secureCookie    bool
	logger          *zap.Logger
}

func NewAuthController(
	authService services.AuthServiceInterface,
	refreshTokenTTL time.Duration,
	secureCookie bool,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		authService:     authService,
		refreshTokenTTL: refreshTokenTTL,
		secureCookie:    secureCookie,
		logger:          logger,
	}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return api.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *AuthController) SignUp(c echo.Context) error {
	var payload dto.SignUpDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	user, err := ctrl.authService.SignUp(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	response := dto.SignUpResponseDTO{
		UserID:              user.ID.String(),
		Email:               user.Email,
		PendingVerification: true,
	}
	return api.SuccessOne(c, http.StatusCreated, "Revisa tu correo para confirmar la cuenta", response)
}

func (ctrl *AuthController) VerifyEmail(c echo.Context) error {
	var payload dto.VerifyEmailDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.authService.VerifyEmail(c.Request().Context(), payload.Token); err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne[any](c, http.StatusOK, "Correo confirmado", nil)
}

func (ctrl *AuthController) ResendVerification(c echo.Context) error {
	var payload dto.ResendVerificationDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}
	if err := ctrl.authService.ResendVerification(c.Request().Context(), payload.Email); err != nil {
		return ctrl.errorResponse(c, err)
	}
	// Ответ одинаковый, существует аккаунт или нет
	return api.SuccessOne[any](c, http.StatusOK, "Si la cuenta existe, recibirás un nuevo correo", nil)
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO
	if err := bindAndValidate(c, &payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	tokens, profile, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}

	ctrl.setRefreshCookie(c, tokens.RefreshToken)
	response := dto.AuthResponseDTO{
		AccessToken: tokens.AccessToken,
		ExpiresAt:   tokens.AccessExp,
		Profile:     profile,
		Permissions: permissionsOf(profile),
	}
	return api.SuccessOne(c, http.StatusOK, "Sesión iniciada", response)
}

func (ctrl *AuthController) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return ctrl.errorResponse(c, apperrors.ErrUnauthorized)
	}

	tokens, err := ctrl.authService.RefreshTokens(c.Request().Context(), cookie.Value)
	if err != nil {
		ctrl.clearRefreshCookie(c)
		return ctrl.errorResponse(c, err)
	}

	ctrl.setRefreshCookie(c, tokens.RefreshToken)
	response := dto.AuthResponseDTO{
		AccessToken: tokens.AccessToken,
		ExpiresAt:   tokens.AccessExp,
	}
	return api.SuccessOne(c, http.StatusOK, "Tokens actualizados", response)
}

func (ctrl *AuthController) Logout(c echo.Context) error {
	var refreshToken string
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}
	if err := ctrl.authService.Logout(c.Request().Context(), refreshToken); err != nil {
		return ctrl.errorResponse(c, err)
	}
	ctrl.clearRefreshCookie(c)
	return api.SuccessOne[any](c, http.StatusOK, "Sesión cerrada", nil)
}

func (ctrl *AuthController) Session(c echo.Context) error {
	session, err := ctrl.authService.Session(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Sesión activa", session)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	session, err := ctrl.authService.Session(c.Request().Context())
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return api.SuccessOne(c, http.StatusOK, "Perfil obtenido", session.Profile)
}

func (ctrl *AuthController) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		Expires:  time.Now().Add(ctrl.refreshTokenTTL),
		HttpOnly: true,
		Secure:   ctrl.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ctrl *AuthController) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ctrl.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
