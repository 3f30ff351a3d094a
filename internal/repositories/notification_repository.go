package repositories

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

const notificationFields = "id, user_id, ticket_id, type, title, message, read, created_at"

type NotificationRepositoryInterface interface {
	// InsertBatch возвращает только реально вставленные строки: повторная
	// обработка того же события ничего не дублирует.
	InsertBatch(ctx context.Context, tx pgx.Tx, outboxEventID uint64, drafts []entities.NotificationDraft) ([]entities.Notification, error)
	FindByID(ctx context.Context, id uint64) (*entities.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit uint64, unreadOnly bool) ([]entities.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id uint64, userID uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	storage *pgxpool.Pool
}

func NewNotificationRepository(storage *pgxpool.Pool) NotificationRepositoryInterface {
	return &notificationRepository{storage: storage}
}

func scanNotification(row pgx.Row) (*entities.Notification, error) {
	var n entities.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.TicketID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func collectNotifications(rows pgx.Rows) ([]entities.Notification, error) {
	defer rows.Close()
	list := make([]entities.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

func (r *notificationRepository) InsertBatch(ctx context.Context, tx pgx.Tx, outboxEventID uint64, drafts []entities.NotificationDraft) ([]entities.Notification, error) {
	if len(drafts) == 0 {
		return []entities.Notification{}, nil
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert("notifications").
		Columns("user_id", "ticket_id", "type", "title", "message", "outbox_event_id")
	for _, d := range drafts {
		builder = builder.Values(d.UserID, d.TicketID, d.Type, d.Title, d.Message, outboxEventID)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (outbox_event_id, user_id) DO NOTHING RETURNING " + notificationFields).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

func (r *notificationRepository) FindByID(ctx context.Context, id uint64) (*entities.Notification, error) {
	return scanNotification(r.storage.QueryRow(ctx,
		"SELECT "+notificationFields+" FROM notifications WHERE id = $1", id))
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit uint64, unreadOnly bool) ([]entities.Notification, error) {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(notificationFields).
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit)
	if unreadOnly {
		builder = builder.Where(sq.Eq{"read": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.storage.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE", userID).Scan(&count)
	return count, err
}

// MarkRead отмечает уведомление только если оно принадлежит userID.
func (r *notificationRepository) MarkRead(ctx context.Context, id uint64, userID uuid.UUID) (bool, error) {
	tag, err := r.storage.Exec(ctx,
		"UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2 AND read = FALSE", id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.storage.Exec(ctx,
		"UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE", userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
