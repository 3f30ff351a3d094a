package services

import (
	"context"
	"strings"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"antares-helpdesk/internal/authz"
	"antares-helpdesk/internal/dto"
	"antares-helpdesk/internal/entities"
	"antares-helpdesk/internal/repositories"
	apperrors "antares-helpdesk/pkg/errors"
	"antares-helpdesk/pkg/utils"
)

type CategoryServiceInterface interface {
	List(ctx context.Context, categoryType *entities.CategoryType) ([]entities.Category, error)
	Get(ctx context.Context, id uint64) (*entities.Category, error)
	Create(ctx context.Context, payload dto.CreateCategoryDTO) (*entities.Category, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) (*entities.Category, error)
	Delete(ctx context.Context, id uint64) error
}

type CategoryService struct {
	categoryRepo repositories.CategoryRepositoryInterface
	logger       *zap.Logger
}

func NewCategoryService(categoryRepo repositories.CategoryRepositoryInterface, logger *zap.Logger) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, logger: logger}
}

func (s *CategoryService) authorize(ctx context.Context, permission string) error {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return err
	}
	if !authz.CanDo(permission, authz.Context{Actor: actor}) {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context, categoryType *entities.CategoryType) ([]entities.Category, error) {
	if err := s.authorize(ctx, authz.CategoriesView); err != nil {
		return nil, err
	}
	return s.categoryRepo.List(ctx, categoryType)
}

func (s *CategoryService) Get(ctx context.Context, id uint64) (*entities.Category, error) {
	if err := s.authorize(ctx, authz.CategoriesView); err != nil {
		return nil, err
	}
	return s.categoryRepo.FindByID(ctx, id)
}

// categoryCode - пустой код генерируется из названия.
func categoryCode(code null.String, name string) null.String {
	if code.Valid && strings.TrimSpace(code.String) != "" {
		return null.StringFrom(utils.GenerateCategoryCode(code.String))
	}
	if generated := utils.GenerateCategoryCode(name); generated != "" {
		return null.StringFrom(generated)
	}
	return null.String{}
}

func (s *CategoryService) Create(ctx context.Context, payload dto.CreateCategoryDTO) (*entities.Category, error) {
	if err := s.authorize(ctx, authz.CategoriesManage); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(payload.Name)
	category := &entities.Category{
		Name:        name,
		Code:        categoryCode(payload.Code, name),
		Description: payload.Description,
		Type:        entities.CategoryTypeTicket,
	}
	if payload.Type != "" {
		category.Type = entities.CategoryType(payload.Type)
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("Категория создана", zap.Uint64("categoryID", category.ID), zap.String("code", category.Code.String))
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint64, payload dto.UpdateCategoryDTO) (*entities.Category, error) {
	if err := s.authorize(ctx, authz.CategoriesManage); err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Name != nil {
		category.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Code.Valid {
		category.Code = categoryCode(payload.Code, category.Name)
	}
	if payload.Description.Valid {
		category.Description = payload.Description
	}
	if payload.Type != nil {
		category.Type = entities.CategoryType(*payload.Type)
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, id uint64) error {
	if err := s.authorize(ctx, authz.CategoriesManage); err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Категория удалена", zap.Uint64("categoryID", id))
	return nil
}
