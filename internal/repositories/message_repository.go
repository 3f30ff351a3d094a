package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

type MessageRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, message *entities.Message) error
	FindByID(ctx context.Context, id uint64) (*entities.Message, error)
	// ListByTicket - по возрастанию (created_at, id), отправитель подтягивается join-ом.
	ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Message, error)
	Delete(ctx context.Context, id uint64) error
}

type messageRepository struct {
	storage *pgxpool.Pool
}

func NewMessageRepository(storage *pgxpool.Pool) MessageRepositoryInterface {
	return &messageRepository{storage: storage}
}

func (r *messageRepository) Create(ctx context.Context, tx pgx.Tx, message *entities.Message) error {
	query := `
		INSERT INTO messages (ticket_id, sender_id, body, attachment_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return tx.QueryRow(ctx, query, message.TicketID, message.SenderID, message.Body, message.AttachmentURL).
		Scan(&message.ID, &message.CreatedAt)
}

func (r *messageRepository) FindByID(ctx context.Context, id uint64) (*entities.Message, error) {
	query := `SELECT id, ticket_id, sender_id, body, attachment_url, created_at FROM messages WHERE id = $1`
	var m entities.Message
	err := r.storage.QueryRow(ctx, query, id).Scan(&m.ID, &m.TicketID, &m.SenderID, &m.Body, &m.AttachmentURL, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Message, error) {
	query := `
		SELECT m.id, m.ticket_id, m.sender_id, m.body, m.attachment_url, m.created_at,
		       p.full_name, p.email, p.role
		FROM messages m
		LEFT JOIN profiles p ON p.id = m.sender_id
		WHERE m.ticket_id = $1
		ORDER BY m.created_at, m.id`
	rows, err := r.storage.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]entities.Message, 0)
	for rows.Next() {
		var m entities.Message
		var name, email, role *string
		if err := rows.Scan(&m.ID, &m.TicketID, &m.SenderID, &m.Body, &m.AttachmentURL, &m.CreatedAt, &name, &email, &role); err != nil {
			return nil, err
		}
		m.Sender = &entities.ProfileSummary{
			ID:       m.SenderID,
			FullName: entities.DisplayName(m.SenderID, deref(name), deref(email)),
			Email:    deref(email),
			Role:     entities.Role(deref(role)),
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *messageRepository) Delete(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM messages WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
