package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

type UserTagServiceInterface interface {
	List(ctx context.Context) ([]entities.UserTag, error)
	Create(ctx context.Context, payload dto.TagDTO) (*entities.UserTag, error)
	Update(ctx context.Context, id uint64, payload dto.TagDTO) (*entities.UserTag, error)
	Delete(ctx context.Context, id uint64) error

	ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.UserTag, error)
	Assign(ctx context.Context, userID uuid.UUID, tagID uint64) error
	Unassign(ctx context.Context, userID uuid.UUID, tagID uint64) error
}

type UserTagService struct {
	userTagRepo repositories.UserTagRepositoryInterface
	profileRepo repositories.ProfileRepositoryInterface
	logger      *zap.Logger
}

func NewUserTagService(
	userTagRepo repositories.UserTagRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	logger *zap.Logger,
) *UserTagService {
	return &UserTagService{userTagRepo: userTagRepo, profileRepo: profileRepo, logger: logger}
}

func (s *UserTagService) authorize(ctx context.Context, permission string) error {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return err
	}
	if !authz.CanDo(permission, authz.Context{Actor: actor}) {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *UserTagService) List(ctx context.Context) ([]entities.UserTag, error) {
	if err := s.authorize(ctx, authz.UserTagsView); err != nil {
		return nil, err
	}
	return s.userTagRepo.List(ctx)
}

func (s *UserTagService) Create(ctx context.Context, payload dto.TagDTO) (*entities.UserTag, error) {
	if err := s.authorize(ctx, authz.UserTagsManage); err != nil {
		return nil, err
	}
	tag := &entities.UserTag{
		Name:        strings.TrimSpace(payload.Name),
		Color:       tagColor(payload.Color),
		Description: payload.Description,
	}
	if err := s.userTagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *UserTagService) Update(ctx context.Context, id uint64, payload dto.TagDTO) (*entities.UserTag, error) {
	if err := s.authorize(ctx, authz.UserTagsManage); err != nil {
		return nil, err
	}
	tag := &entities.UserTag{
		ID:          id,
		Name:        strings.TrimSpace(payload.Name),
		Color:       tagColor(payload.Color),
		Description: payload.Description,
	}
	if err := s.userTagRepo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *UserTagService) Delete(ctx context.Context, id uint64) error {
	if err := s.authorize(ctx, authz.UserTagsManage); err != nil {
		return err
	}
	return s.userTagRepo.Delete(ctx, id)
}

func (s *UserTagService) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.UserTag, error) {
	if err := s.authorize(ctx, authz.UserTagsView); err != nil {
		return nil, err
	}
	return s.userTagRepo.ListByUser(ctx, userID)
}

func (s *UserTagService) Assign(ctx context.Context, userID uuid.UUID, tagID uint64) error {
	if err := s.authorize(ctx, authz.UserTagsManage); err != nil {
		return err
	}
	if _, err := s.profileRepo.FindByID(ctx, userID); err != nil {
		return err
	}
	if err := s.userTagRepo.Assign(ctx, userID, tagID); err != nil {
		return err
	}
	s.logger.Info("Метка пользователя назначена", zap.String("userID", userID.String()), zap.Uint64("tagID", tagID))
	return nil
}

func (s *UserTagService) Unassign(ctx context.Context, userID uuid.UUID, tagID uint64) error {
	if err := s.authorize(ctx, authz.UserTagsManage); err != nil {
		return err
	}
	return s.userTagRepo.Unassign(ctx, userID, tagID)
}
