package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/pkg/api"
	"antares-helpdesk/pkg/contextkeys"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/retry"
	"antares-helpdesk/pkg/service"
	"antares-helpdesk/pkg/utils"
)

// TokenDenylist - отозванные при выходе access-токены.
type TokenDenylist interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// ProfileFinder загружает профиль субъекта запроса.
type ProfileFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Profile, error)
}

type AuthMiddleware struct {
	jwtService    service.JWTService
	denylist      TokenDenylist
	profiles      ProfileFinder
	retryAttempts uint64
	retryBackoff  time.Duration
	logger        *zap.Logger
}

func NewAuthMiddleware(
	jwtSvc service.JWTService,
	denylist TokenDenylist,
	profiles ProfileFinder,
	retryAttempts uint64,
	retryBackoff time.Duration,
	logger *zap.Logger,
) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:    jwtSvc,
		denylist:      denylist,
		profiles:      profiles,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
		logger:        logger,
	}
}

// Auth проверяет access-токен и кладёт в контекст субъекта с его ролью.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := requestToken(c)
		if err != nil {
			return api.ErrorResponse(c, err, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			return api.ErrorResponse(c, err, m.logger)
		}
		if claims.IsRefreshToken {
			return api.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		ctx := c.Request().Context()
		if m.denylist != nil {
			revoked, err := m.denylist.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				m.logger.Error("AuthMiddleware: не удалось проверить отзыв токена", zap.Error(err))
				return api.ErrorResponse(c, apperrors.ErrUnavailable, m.logger)
			}
			if revoked {
				return api.ErrorResponse(c, apperrors.ErrTokenRevoked, m.logger)
			}
		}

		profile, err := m.loadProfile(ctx, claims.UserID)
		if err != nil {
			return api.ErrorResponse(c, err, m.logger)
		}

		ctx = utils.WithActor(ctx, authz.NewActor(profile))
		ctx = context.WithValue(ctx, contextkeys.TokenIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			ctx = context.WithValue(ctx, contextkeys.TokenExpKey, claims.ExpiresAt.Time)
		}
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// loadProfile повторяет временные ошибки хранилища с линейной задержкой.
func (m *AuthMiddleware) loadProfile(ctx context.Context, userID uuid.UUID) (*entities.Profile, error) {
	var profile *entities.Profile
	err := retry.Do(ctx, m.retryBackoff, m.retryAttempts, isTransient, func(ctx context.Context) error {
		p, err := m.profiles.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, apperrors.ErrUnauthorized
	case errors.Is(err, context.Canceled):
		return nil, err
	}
	m.logger.Error("AuthMiddleware: профиль недоступен после повторов",
		zap.String("userID", userID.String()),
		zap.Error(err),
	)
	return nil, apperrors.ErrUnavailable
}

func isTransient(err error) bool {
	return !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, context.Canceled)
}

// requestToken - браузер не умеет ставить заголовки при апгрейде websocket,
// поэтому для него токен принимается из ?token=.
func requestToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" && isWebSocketUpgrade(c.Request().Header) {
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
	}
	return bearerToken(header)
}

func isWebSocketUpgrade(h http.Header) bool {
	return strings.EqualFold(h.Get(echo.HeaderUpgrade), "websocket")
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.ErrEmptyAuthHeader
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.ErrInvalidAuthHeader
	}
	return parts[1], nil
}
