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

const tagFields = "id, name, color, description, created_at"

type TagRepositoryInterface interface {
	List(ctx context.Context) ([]entities.Tag, error)
	FindByID(ctx context.Context, id uint64) (*entities.Tag, error)
	Create(ctx context.Context, tag *entities.Tag) error
	Update(ctx context.Context, tag *entities.Tag) error
	Delete(ctx context.Context, id uint64) error

	ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Tag, error)
	// AddToTicket возвращает false, если метка уже была на тикете.
	AddToTicket(ctx context.Context, tx pgx.Tx, ticketID, tagID uint64) (bool, error)
	RemoveFromTicket(ctx context.Context, tx pgx.Tx, ticketID, tagID uint64) (bool, error)
}

type tagRepository struct {
	storage *pgxpool.Pool
}

func NewTagRepository(storage *pgxpool.Pool) TagRepositoryInterface {
	return &tagRepository{storage: storage}
}

func scanTag(row pgx.Row) (*entities.Tag, error) {
	var t entities.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Color, &t.Description, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func collectTags(rows pgx.Rows) ([]entities.Tag, error) {
	defer rows.Close()
	tags := make([]entities.Tag, 0)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

func (r *tagRepository) List(ctx context.Context) ([]entities.Tag, error) {
	rows, err := r.storage.Query(ctx, "SELECT "+tagFields+" FROM tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

func (r *tagRepository) FindByID(ctx context.Context, id uint64) (*entities.Tag, error) {
	return scanTag(r.storage.QueryRow(ctx, "SELECT "+tagFields+" FROM tags WHERE id = $1", id))
}

func (r *tagRepository) Create(ctx context.Context, tag *entities.Tag) error {
	created, err := scanTag(r.storage.QueryRow(ctx,
		"INSERT INTO tags (name, color, description) VALUES ($1, $2, $3) RETURNING "+tagFields,
		tag.Name, tag.Color, tag.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ya existe una etiqueta con este nombre: %w", apperrors.ErrConflict)
		}
		return err
	}
	*tag = *created
	return nil
}

func (r *tagRepository) Update(ctx context.Context, tag *entities.Tag) error {
	updated, err := scanTag(r.storage.QueryRow(ctx,
		"UPDATE tags SET name = $2, color = $3, description = $4 WHERE id = $1 RETURNING "+tagFields,
		tag.ID, tag.Name, tag.Color, tag.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ya existe una etiqueta con este nombre: %w", apperrors.ErrConflict)
		}
		return err
	}
	*tag = *updated
	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM tags WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tagRepository) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Tag, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT tg.id, tg.name, tg.color, tg.description, tg.created_at
		FROM tags tg
		JOIN ticket_tags tt ON tt.tag_id = tg.id
		WHERE tt.ticket_id = $1
		ORDER BY tg.name`, ticketID)
	if err != nil {
		return nil, err
	}
	return collectTags(rows)
}

func (r *tagRepository) AddToTicket(ctx context.Context, tx pgx.Tx, ticketID, tagID uint64) (bool, error) {
	tag, err := tx.Exec(ctx,
		"INSERT INTO ticket_tags (ticket_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", ticketID, tagID)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return false, apperrors.ErrNotFound
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *tagRepository) RemoveFromTicket(ctx context.Context, tx pgx.Tx, ticketID, tagID uint64) (bool, error) {
	tag, err := tx.Exec(ctx, "DELETE FROM ticket_tags WHERE ticket_id = $1 AND tag_id = $2", ticketID, tagID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
