package repositories

import (
	"context"
	"errors"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

const feedbackFields = "id, ticket_id, user_id, rating, comment, created_at"

type FeedbackRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, fb *entities.TicketFeedback) error
	FindByTicket(ctx context.Context, ticketID uint64) (*entities.TicketFeedback, error)
	List(ctx context.Context, limit, offset uint64) ([]entities.TicketFeedback, uint64, error)
	Stats(ctx context.Context) (*entities.FeedbackStats, error)
}

type feedbackRepository struct {
	storage *pgxpool.Pool
}

func NewFeedbackRepository(storage *pgxpool.Pool) FeedbackRepositoryInterface {
	return &feedbackRepository{storage: storage}
}

func scanFeedback(row pgx.Row) (*entities.TicketFeedback, error) {
	var fb entities.TicketFeedback
	if err := row.Scan(&fb.ID, &fb.TicketID, &fb.UserID, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepository) Create(ctx context.Context, tx pgx.Tx, fb *entities.TicketFeedback) error {
	query := `
		INSERT INTO ticket_feedback (ticket_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + feedbackFields
	created, err := scanFeedback(tx.QueryRow(ctx, query, fb.TicketID, fb.UserID, fb.Rating, fb.Comment))
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrFeedbackExists
		}
		return err
	}
	*fb = *created
	return nil
}

func (r *feedbackRepository) FindByTicket(ctx context.Context, ticketID uint64) (*entities.TicketFeedback, error) {
	return scanFeedback(r.storage.QueryRow(ctx,
		"SELECT "+feedbackFields+" FROM ticket_feedback WHERE ticket_id = $1", ticketID))
}

func (r *feedbackRepository) List(ctx context.Context, limit, offset uint64) ([]entities.TicketFeedback, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, "SELECT COUNT(*) FROM ticket_feedback").Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(feedbackFields).
		From("ticket_feedback").
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.TicketFeedback, 0)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *fb)
	}
	return list, total, rows.Err()
}

func (r *feedbackRepository) Stats(ctx context.Context) (*entities.FeedbackStats, error) {
	rows, err := r.storage.Query(ctx, "SELECT rating, COUNT(*) FROM ticket_feedback GROUP BY rating")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		counts[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BuildFeedbackStats(counts), nil
}

// BuildFeedbackStats считает среднее с точностью до одного знака; в распределении
// всегда присутствуют все оценки от 1 до 5.
func BuildFeedbackStats(counts map[int]int) *entities.FeedbackStats {
	stats := &entities.FeedbackStats{Distribution: make(map[int]int, entities.MaxRating)}
	sum := 0
	for rating := entities.MinRating; rating <= entities.MaxRating; rating++ {
		c := counts[rating]
		stats.Distribution[rating] = c
		stats.Total += c
		sum += rating * c
	}
	if stats.Total > 0 {
		stats.Average = math.Round(float64(sum)/float64(stats.Total)*10) / 10
	}
	return stats
}
