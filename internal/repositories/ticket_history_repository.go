package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
)

type TicketHistoryRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, entry *entities.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID uint64) ([]entities.TicketHistory, error)
}

type ticketHistoryRepository struct {
	storage *pgxpool.Pool
}

func NewTicketHistoryRepository(storage *pgxpool.Pool) TicketHistoryRepositoryInterface {
	return &ticketHistoryRepository{storage: storage}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, tx pgx.Tx, entry *entities.TicketHistory) error {
	query := `
		INSERT INTO ticket_history (ticket_id, changed_by, action, field_name, old_value, new_value, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		entry.TicketID, entry.ChangedBy, entry.Action, entry.FieldName,
		entry.OldValue, entry.NewValue, entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListByTicket - от новых к старым, вместе с автором изменения.
func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.TicketHistory, error) {
	query := `
		SELECT h.id, h.ticket_id, h.changed_by, h.action, h.field_name, h.old_value, h.new_value,
		       h.description, h.created_at,
		       COALESCE(p.full_name, ''), COALESCE(p.email, ''), COALESCE(p.role, '')
		FROM ticket_history h
		LEFT JOIN profiles p ON p.id = h.changed_by
		WHERE h.ticket_id = $1
		ORDER BY h.created_at DESC, h.id DESC`

	rows, err := r.storage.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]entities.TicketHistory, 0)
	for rows.Next() {
		var (
			h               entities.TicketHistory
			fullName, email string
			role            entities.Role
		)
		if err := rows.Scan(&h.ID, &h.TicketID, &h.ChangedBy, &h.Action, &h.FieldName, &h.OldValue,
			&h.NewValue, &h.Description, &h.CreatedAt, &fullName, &email, &role); err != nil {
			return nil, err
		}
		h.Actor = &entities.ProfileSummary{
			ID:       h.ChangedBy,
			FullName: entities.DisplayName(h.ChangedBy, fullName, email),
			Email:    email,
			Role:     role,
		}
		list = append(list, h)
	}
	return list, rows.Err()
}
