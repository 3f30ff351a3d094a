package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	"antares-helpdesk/pkg/config"
	"antares-helpdesk/pkg/contextkeys"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/service"
	"antares-helpdesk/pkg/utils"
)

const (
	verifyEmailKeyPrefix  = "verify_email:"
	resendCooldownPrefix  = "verify_resend:"
	loginAttemptsPrefix   = "login_attempts:"
	loginLockoutPrefix    = "login_lockout:"
	revokedTokenKeyPrefix = "revoked_token:"
)

type AuthServiceInterface interface {
	SignUp(ctx context.Context, payload dto.SignUpDTO) (*entities.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPair, *entities.Profile, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Session(ctx context.Context) (*dto.SessionDTO, error)
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	userRepo    repositories.UserRepositoryInterface
	profileRepo repositories.ProfileRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	jwtService  service.JWTService
	mailer      MailerInterface
	cfg         config.AuthConfig
	logger      *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	mailer MailerInterface,
	cfg config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		cacheRepo:   cacheRepo,
		jwtService:  jwtService,
		mailer:      mailer,
		cfg:         cfg,
		logger:      logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) SignUp(ctx context.Context, payload dto.SignUpDTO) (*entities.User, error) {
	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(payload.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(payload.FullName),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.issueVerificationToken(ctx, user); err != nil {
		// Аккаунт создан, письмо можно запросить повторно
		s.logger.Error("Не удалось отправить письмо подтверждения", zap.String("email", user.Email), zap.Error(err))
	}
	s.logger.Info("Зарегистрирован новый пользователь", zap.String("userID", user.ID.String()))
	return user, nil
}

func (s *AuthService) issueVerificationToken(ctx context.Context, user *entities.User) error {
	token := uuid.NewString()
	if err := s.cacheRepo.Set(ctx, verifyEmailKeyPrefix+token, user.ID.String(), s.cfg.VerificationTokenTTL); err != nil {
		return fmt.Errorf("не удалось сохранить токен подтверждения: %w", err)
	}
	return s.mailer.SendVerificationEmail(user.Email, token)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	invalid := apperrors.NewHttpError(http.StatusBadRequest,
		"El enlace de verificación no es válido o ha expirado", apperrors.ErrInvalidToken, nil)

	key := verifyEmailKeyPrefix + strings.TrimSpace(token)
	raw, err := s.cacheRepo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrCacheMiss) {
			return invalid
		}
		return err
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return invalid
	}

	if err := s.userRepo.MarkEmailVerified(ctx, userID); err != nil {
		return err
	}
	if err := s.cacheRepo.Del(ctx, key); err != nil {
		s.logger.Warn("Не удалось удалить использованный токен подтверждения", zap.Error(err))
	}
	s.logger.Info("Email подтверждён", zap.String("userID", userID.String()))
	return nil
}

// ResendVerification никогда не сообщает, существует ли аккаунт.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	allowed, err := s.cacheRepo.SetNX(ctx, resendCooldownPrefix+email, "1", s.cfg.ResendCooldown)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.Info("Повторная отправка письма: слишком часто", zap.String("email", email))
		return nil
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.IsVerified() {
		return nil
	}
	return s.issueVerificationToken(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPair, *entities.Profile, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(payload.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := s.checkLockout(ctx, user.ID); err != nil {
		return nil, nil, err
	}

	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, user.ID)
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsVerified() {
		return nil, nil, apperrors.ErrEmailNotVerified
	}
	s.resetLoginAttempts(ctx, user.ID)

	profile, err := s.profileRepo.EnsureProfile(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.generateTokens(user.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Успешный вход", zap.String("userID", user.ID.String()), zap.String("role", string(profile.Role)))
	return pair, profile, nil
}

func (s *AuthService) generateTokens(userID uuid.UUID) (*dto.TokenPair, error) {
	access, refresh, err := s.jwtService.GenerateTokens(userID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    time.Now().Add(s.jwtService.GetAccessTokenTTL()),
	}, nil
}

func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	revoked, err := s.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}

	if _, err := s.profileRepo.FindByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	// Старый refresh-токен одноразовый
	s.revokeClaims(ctx, claims)
	return s.generateTokens(claims.UserID)
}

// Logout отзывает текущий access-токен и, если передан, refresh-токен.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	jti, _ := ctx.Value(contextkeys.TokenIDKey).(string)
	exp, _ := ctx.Value(contextkeys.TokenExpKey).(time.Time)
	if jti != "" {
		if err := s.revoke(ctx, jti, exp); err != nil {
			return err
		}
	}

	if refreshToken != "" {
		if claims, err := s.jwtService.ValidateToken(refreshToken); err == nil && claims.IsRefreshToken {
			s.revokeClaims(ctx, claims)
		}
	}
	return nil
}

func (s *AuthService) revokeClaims(ctx context.Context, claims *service.JwtCustomClaim) {
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.revoke(ctx, claims.ID, exp); err != nil {
		s.logger.Warn("Не удалось отозвать токен", zap.String("jti", claims.ID), zap.Error(err))
	}
}

// revoke держит jti в denylist ровно до истечения токена.
func (s *AuthService) revoke(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if exp.IsZero() {
		ttl = s.jwtService.GetRefreshTokenTTL()
	}
	if ttl <= 0 {
		return nil
	}
	return s.cacheRepo.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl)
}

func (s *AuthService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.cacheRepo.Exists(ctx, revokedTokenKeyPrefix+jti)
}

func (s *AuthService) Session(ctx context.Context) (*dto.SessionDTO, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	profile, err := s.profileRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	exp, _ := ctx.Value(contextkeys.TokenExpKey).(time.Time)
	return &dto.SessionDTO{
		Profile:     profile,
		Permissions: authz.PermissionList(profile.Role),
		ExpiresAt:   exp,
	}, nil
}

func (s *AuthService) checkLockout(ctx context.Context, userID uuid.UUID) error {
	locked, err := s.cacheRepo.Exists(ctx, loginLockoutPrefix+userID.String())
	if err != nil {
		s.logger.Warn("Не удалось проверить блокировку входа", zap.Error(err))
		return nil
	}
	if locked {
		return apperrors.ErrAccountLocked
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, userID uuid.UUID) {
	attemptsKey := loginAttemptsPrefix + userID.String()
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Warn("Не удалось учесть неудачный вход", zap.Error(err))
		return
	}
	if attempts == 1 {
		_, _ = s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		s.logger.Warn("Аккаунт временно заблокирован", zap.String("userID", userID.String()))
		_ = s.cacheRepo.Set(ctx, loginLockoutPrefix+userID.String(), "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, userID uuid.UUID) {
	_ = s.cacheRepo.Del(ctx, loginAttemptsPrefix+userID.String(), loginLockoutPrefix+userID.String())
}
