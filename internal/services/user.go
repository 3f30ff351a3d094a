package services

import (
	"context"
	"errors"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

type UserServiceInterface interface {
	List(ctx context.Context, role, search string, limit, offset uint64) ([]entities.Profile, uint64, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, payload dto.UpdateUserRoleDTO) (*entities.Profile, error)
}

// UserService работает с профилями helpdesk, учётные записи ведёт AuthService.
type UserService struct {
	profileRepo  repositories.ProfileRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	logger       *zap.Logger
}

func NewUserService(
	profileRepo repositories.ProfileRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	logger *zap.Logger,
) *UserService {
	return &UserService{profileRepo: profileRepo, categoryRepo: categoryRepo, logger: logger}
}

func (s *UserService) List(ctx context.Context, role, search string, limit, offset uint64) ([]entities.Profile, uint64, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !authz.CanDo(authz.UsersView, authz.Context{Actor: actor}) {
		return nil, 0, apperrors.ErrForbidden
	}

	filter := repositories.ProfileFilter{
		Search: strings.TrimSpace(search),
		Limit:  limit,
		Offset: offset,
	}
	if role != "" {
		r := entities.Role(role)
		if !r.Valid() {
			return nil, 0, apperrors.NewInvalidInputError("rol no válido: %s", role)
		}
		filter.Role = &r
	}
	return s.profileRepo.List(ctx, filter)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*entities.Profile, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanRead(actor, profile) {
		return nil, apperrors.ErrForbidden
	}
	return profile, nil
}

// UpdateRole - департамент есть только у employee, категория только у assistant.
// Смена роли очищает атрибут, который новой роли не положен.
func (s *UserService) UpdateRole(ctx context.Context, id uuid.UUID, payload dto.UpdateUserRoleDTO) (*entities.Profile, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanWrite(actor, profile) {
		return nil, apperrors.ErrForbidden
	}

	role := entities.Role(payload.Role)
	if !role.Valid() {
		return nil, apperrors.NewInvalidInputError("rol no válido: %s", payload.Role)
	}

	var department null.String
	if role == entities.RoleEmployee && payload.Department.Valid {
		if d := strings.TrimSpace(payload.Department.String); d != "" {
			department = null.StringFrom(d)
		}
	}

	var assignedCategoryID *uint64
	if role == entities.RoleAssistant && payload.AssignedCategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *payload.AssignedCategoryID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewInvalidInputError("la categoría asignada no existe")
			}
			return nil, err
		}
		assignedCategoryID = payload.AssignedCategoryID
	}

	updated, err := s.profileRepo.UpdateRole(ctx, id, role, department, assignedCategoryID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Роль пользователя изменена",
		zap.String("userID", id.String()),
		zap.String("from", string(profile.Role)),
		zap.String("to", string(role)),
		zap.String("by", actor.UserID.String()))
	return updated, nil
}
