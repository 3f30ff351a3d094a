package repositories

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
)

const outboxFields = "id, event_type, ticket_id, payload, attempts, available_at, processed_at, last_error, created_at"

type OutboxRepositoryInterface interface {
	Enqueue(ctx context.Context, tx pgx.Tx, eventType string, ticketID *uint64, payload interface{}) (uint64, error)
	// ClaimBatch блокирует готовые к обработке события до конца транзакции tx.
	ClaimBatch(ctx context.Context, tx pgx.Tx, limit uint64) ([]entities.OutboxEvent, error)
	MarkProcessed(ctx context.Context, tx pgx.Tx, id uint64) error
	MarkFailed(ctx context.Context, id uint64, lastError string, retryAt time.Time) error
	Park(ctx context.Context, id uint64, lastError string) error
}

type outboxRepository struct {
	storage *pgxpool.Pool
}

func NewOutboxRepository(storage *pgxpool.Pool) OutboxRepositoryInterface {
	return &outboxRepository{storage: storage}
}

func (r *outboxRepository) Enqueue(ctx context.Context, tx pgx.Tx, eventType string, ticketID *uint64, payload interface{}) (uint64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = tx.QueryRow(ctx,
		"INSERT INTO outbox_events (event_type, ticket_id, payload) VALUES ($1, $2, $3) RETURNING id",
		eventType, ticketID, raw,
	).Scan(&id)
	return id, err
}

func (r *outboxRepository) ClaimBatch(ctx context.Context, tx pgx.Tx, limit uint64) ([]entities.OutboxEvent, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(outboxFields).
		From("outbox_events").
		Where(sq.Eq{"processed_at": nil}).
		Where(sq.Expr("available_at <= NOW()")).
		OrderBy("available_at", "id").
		Limit(limit).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]entities.OutboxEvent, 0)
	for rows.Next() {
		var e entities.OutboxEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.TicketID, &e.Payload, &e.Attempts,
			&e.AvailableAt, &e.ProcessedAt, &e.LastError, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, tx pgx.Tx, id uint64) error {
	_, err := tx.Exec(ctx, "UPDATE outbox_events SET processed_at = NOW(), last_error = NULL WHERE id = $1", id)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uint64, lastError string, retryAt time.Time) error {
	_, err := r.storage.Exec(ctx,
		"UPDATE outbox_events SET attempts = attempts + 1, last_error = $2, available_at = $3 WHERE id = $1",
		id, lastError, retryAt)
	return err
}

// Park снимает событие с обработки, сохраняя последнюю ошибку.
func (r *outboxRepository) Park(ctx context.Context, id uint64, lastError string) error {
	_, err := r.storage.Exec(ctx,
		"UPDATE outbox_events SET attempts = attempts + 1, last_error = $2, processed_at = NOW() WHERE id = $1",
		id, lastError)
	return err
}
