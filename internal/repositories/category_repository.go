package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

const (
	categoryTable  = "categories"
	categoryFields = "id, name, code, description, type, created_at, updated_at"
)

type CategoryRepositoryInterface interface {
	List(ctx context.Context, categoryType *entities.CategoryType) ([]entities.Category, error)
	FindByID(ctx context.Context, id uint64) (*entities.Category, error)
	Create(ctx context.Context, category *entities.Category) error
	Update(ctx context.Context, category *entities.Category) error
	Delete(ctx context.Context, id uint64) error
}

type categoryRepository struct {
	storage *pgxpool.Pool
}

func NewCategoryRepository(storage *pgxpool.Pool) CategoryRepositoryInterface {
	return &categoryRepository{storage: storage}
}

func scanCategory(row pgx.Row) (*entities.Category, error) {
	var c entities.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Description, &c.Type, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context, categoryType *entities.CategoryType) ([]entities.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", categoryFields, categoryTable)
	var args []interface{}
	if categoryType != nil {
		query += " WHERE type = $1"
		args = append(args, string(*categoryType))
	}
	query += " ORDER BY name"

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]entities.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint64) (*entities.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", categoryFields, categoryTable)
	return scanCategory(r.storage.QueryRow(ctx, query, id))
}

func (r *categoryRepository) Create(ctx context.Context, category *entities.Category) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, code, description, type)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, categoryTable, categoryFields)

	created, err := scanCategory(r.storage.QueryRow(ctx, query,
		category.Name, category.Code, category.Description, category.Type))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("código de categoría duplicado: %w", apperrors.ErrConflict)
		}
		return err
	}
	*category = *created
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *entities.Category) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $2, code = $3, description = $4, type = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, categoryTable, categoryFields)

	updated, err := scanCategory(r.storage.QueryRow(ctx, query,
		category.ID, category.Name, category.Code, category.Description, category.Type))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("código de categoría duplicado: %w", apperrors.ErrConflict)
		}
		return err
	}
	*category = *updated
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
