package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

const userTagFields = "id, name, color, description, created_at"

type UserTagRepositoryInterface interface {
	List(ctx context.Context) ([]entities.UserTag, error)
	FindByID(ctx context.Context, id uint64) (*entities.UserTag, error)
	Create(ctx context.Context, tag *entities.UserTag) error
	Update(ctx context.Context, tag *entities.UserTag) error
	Delete(ctx context.Context, id uint64) error

	ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.UserTag, error)
	Assign(ctx context.Context, userID uuid.UUID, tagID uint64) error
	Unassign(ctx context.Context, userID uuid.UUID, tagID uint64) error
}

type userTagRepository struct {
	storage *pgxpool.Pool
}

func NewUserTagRepository(storage *pgxpool.Pool) UserTagRepositoryInterface {
	return &userTagRepository{storage: storage}
}

func scanUserTag(row pgx.Row) (*entities.UserTag, error) {
	var t entities.UserTag
	if err := row.Scan(&t.ID, &t.Name, &t.Color, &t.Description, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *userTagRepository) query(ctx context.Context, sql string, args ...interface{}) ([]entities.UserTag, error) {
	rows, err := r.storage.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]entities.UserTag, 0)
	for rows.Next() {
		t, err := scanUserTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

func (r *userTagRepository) List(ctx context.Context) ([]entities.UserTag, error) {
	return r.query(ctx, "SELECT "+userTagFields+" FROM user_tags ORDER BY name")
}

func (r *userTagRepository) FindByID(ctx context.Context, id uint64) (*entities.UserTag, error) {
	return scanUserTag(r.storage.QueryRow(ctx, "SELECT "+userTagFields+" FROM user_tags WHERE id = $1", id))
}

func (r *userTagRepository) Create(ctx context.Context, tag *entities.UserTag) error {
	created, err := scanUserTag(r.storage.QueryRow(ctx,
		"INSERT INTO user_tags (name, color, description) VALUES ($1, $2, $3) RETURNING "+userTagFields,
		tag.Name, tag.Color, tag.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ya existe una etiqueta de usuario con este nombre: %w", apperrors.ErrConflict)
		}
		return err
	}
	*tag = *created
	return nil
}

func (r *userTagRepository) Update(ctx context.Context, tag *entities.UserTag) error {
	updated, err := scanUserTag(r.storage.QueryRow(ctx,
		"UPDATE user_tags SET name = $2, color = $3, description = $4 WHERE id = $1 RETURNING "+userTagFields,
		tag.ID, tag.Name, tag.Color, tag.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ya existe una etiqueta de usuario con este nombre: %w", apperrors.ErrConflict)
		}
		return err
	}
	*tag = *updated
	return nil
}

func (r *userTagRepository) Delete(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM user_tags WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *userTagRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.UserTag, error) {
	return r.query(ctx, `
		SELECT ut.id, ut.name, ut.color, ut.description, ut.created_at
		FROM user_tags ut
		JOIN user_user_tags uut ON uut.user_tag_id = ut.id
		WHERE uut.user_id = $1
		ORDER BY ut.name`, userID)
}

// Assign идемпотентна: повторное назначение метки не ошибка.
func (r *userTagRepository) Assign(ctx context.Context, userID uuid.UUID, tagID uint64) error {
	_, err := r.storage.Exec(ctx,
		"INSERT INTO user_user_tags (user_id, user_tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", userID, tagID)
	if pgErrorCode(err) == pgForeignKeyViolation {
		return apperrors.ErrNotFound
	}
	return err
}

func (r *userTagRepository) Unassign(ctx context.Context, userID uuid.UUID, tagID uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM user_user_tags WHERE user_id = $1 AND user_tag_id = $2", userID, tagID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
