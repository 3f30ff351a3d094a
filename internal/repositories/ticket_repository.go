package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

const (
	ticketTable  = "tickets"
	ticketFields = "id, title, description, status, priority, user_id, category_id, assigned_to, version, created_at, updated_at"
)

// Колонки обогащённого тикета: владелец, исполнитель и категория одним запросом.
var ticketDetailsColumns = []string{
	"t.id", "t.title", "t.description", "t.status", "t.priority", "t.user_id",
	"t.category_id", "t.assigned_to", "t.version", "t.created_at", "t.updated_at",
	"o.full_name", "o.email", "o.role",
	"a.full_name", "a.email", "a.role",
	"c.name",
}

type TicketRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, ticket *entities.Ticket) error
	FindByID(ctx context.Context, id uint64) (*entities.Ticket, error)
	GetDetails(ctx context.Context, id uint64) (*entities.TicketDetails, error)
	List(ctx context.Context, filter entities.TicketFilter) ([]entities.TicketDetails, uint64, error)
	// Update - compare-and-swap по ticket.Version. Несовпадение версии - ErrVersionConflict.
	Update(ctx context.Context, tx pgx.Tx, ticket *entities.Ticket) error
	// LockStatus перечитывает статус внутри транзакции под FOR SHARE:
	// параллельная смена статуса ждёт её коммита.
	LockStatus(ctx context.Context, tx pgx.Tx, id uint64) (entities.TicketStatus, error)
	Delete(ctx context.Context, id uint64) error
}

type ticketRepository struct {
	storage *pgxpool.Pool
	psql    sq.StatementBuilderType
}

func NewTicketRepository(storage *pgxpool.Pool) TicketRepositoryInterface {
	return &ticketRepository{
		storage: storage,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var t entities.Ticket
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.UserID,
		&t.CategoryID, &t.AssignedTo, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func scanTicketDetails(row pgx.Row) (*entities.TicketDetails, error) {
	var (
		d                           entities.TicketDetails
		assigneeName, assigneeEmail *string
		assigneeRole                *string
		categoryName                *string
		ownerRole                   string
	)
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Status, &d.Priority, &d.UserID,
		&d.CategoryID, &d.AssignedTo, &d.Version, &d.CreatedAt, &d.UpdatedAt,
		&d.Owner.FullName, &d.Owner.Email, &ownerRole,
		&assigneeName, &assigneeEmail, &assigneeRole,
		&categoryName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	d.Owner.ID = d.UserID
	d.Owner.Role = entities.Role(ownerRole)
	d.Owner.FullName = entities.DisplayName(d.UserID, d.Owner.FullName, d.Owner.Email)

	if d.AssignedTo != nil && assigneeEmail != nil {
		d.Assignee = &entities.ProfileSummary{
			ID:       *d.AssignedTo,
			FullName: entities.DisplayName(*d.AssignedTo, deref(assigneeName), *assigneeEmail),
			Email:    *assigneeEmail,
			Role:     entities.Role(deref(assigneeRole)),
		}
	}
	if d.CategoryID != nil && categoryName != nil {
		d.Category = &entities.CategorySummary{ID: *d.CategoryID, Name: *categoryName}
	}
	d.Tags = []entities.Tag{}
	return &d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *ticketRepository) detailsQuery() sq.SelectBuilder {
	return r.psql.Select(ticketDetailsColumns...).
		From("tickets t").
		Join("profiles o ON o.id = t.user_id").
		LeftJoin("profiles a ON a.id = t.assigned_to").
		LeftJoin("categories c ON c.id = t.category_id")
}

func applyTicketFilter(builder sq.SelectBuilder, filter entities.TicketFilter) sq.SelectBuilder {
	if filter.OwnerID != nil {
		builder = builder.Where(sq.Eq{"t.user_id": *filter.OwnerID})
	}
	if filter.AssignedTo != nil {
		builder = builder.Where(sq.Eq{"t.assigned_to": *filter.AssignedTo})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		builder = builder.Where(sq.Eq{"t.status": statuses})
	}
	if filter.Priority != nil {
		builder = builder.Where(sq.Eq{"t.priority": string(*filter.Priority)})
	}
	if filter.CategoryID != nil {
		builder = builder.Where(sq.Eq{"t.category_id": *filter.CategoryID})
	}
	if filter.TagID != nil {
		builder = builder.Where("EXISTS (SELECT 1 FROM ticket_tags tt WHERE tt.ticket_id = t.id AND tt.tag_id = ?)", *filter.TagID)
	}
	if filter.Search != "" {
		builder = builder.Where(iLikeContains(filter.Search, "t.title", "t.description"))
	}
	return builder
}

func (r *ticketRepository) Create(ctx context.Context, tx pgx.Tx, ticket *entities.Ticket) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, description, status, priority, user_id, category_id, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, ticketTable, ticketFields)

	created, err := scanTicket(tx.QueryRow(ctx, query,
		ticket.Title, ticket.Description, ticket.Status, ticket.Priority,
		ticket.UserID, ticket.CategoryID, ticket.AssignedTo))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return apperrors.NewInvalidInputError("la categoría indicada no existe")
		}
		return fmt.Errorf("ошибка создания тикета: %w", err)
	}
	*ticket = *created
	return nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id uint64) (*entities.Ticket, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", ticketFields, ticketTable)
	return scanTicket(r.storage.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetDetails(ctx context.Context, id uint64) (*entities.TicketDetails, error) {
	query, args, err := r.detailsQuery().Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	details, err := scanTicketDetails(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	tags, err := r.loadTags(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if t, ok := tags[id]; ok {
		details.Tags = t
	}
	return details, nil
}

// List - обратный хронологический порядок; теги подгружаются одним запросом на страницу.
func (r *ticketRepository) List(ctx context.Context, filter entities.TicketFilter) ([]entities.TicketDetails, uint64, error) {
	countBuilder := applyTicketFilter(r.psql.Select("COUNT(*)").From("tickets t"), filter)
	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.TicketDetails{}, 0, nil
	}

	builder := applyTicketFilter(r.detailsQuery(), filter).OrderBy("t.created_at DESC", "t.id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit).Offset(filter.Offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := make([]entities.TicketDetails, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		d, err := scanTicketDetails(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	tags, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range tickets {
		if t, ok := tags[tickets[i].ID]; ok {
			tickets[i].Tags = t
		}
	}
	return tickets, total, nil
}

func (r *ticketRepository) loadTags(ctx context.Context, ticketIDs []uint64) (map[uint64][]entities.Tag, error) {
	out := make(map[uint64][]entities.Tag, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return out, nil
	}
	rows, err := r.storage.Query(ctx, `
		SELECT tt.ticket_id, tg.id, tg.name, tg.color, tg.description, tg.created_at
		FROM ticket_tags tt
		JOIN tags tg ON tg.id = tt.tag_id
		WHERE tt.ticket_id = ANY($1)
		ORDER BY tg.name`, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID uint64
		var tag entities.Tag
		if err := rows.Scan(&ticketID, &tag.ID, &tag.Name, &tag.Color, &tag.Description, &tag.CreatedAt); err != nil {
			return nil, err
		}
		out[ticketID] = append(out[ticketID], tag)
	}
	return out, rows.Err()
}

func (r *ticketRepository) Update(ctx context.Context, tx pgx.Tx, ticket *entities.Ticket) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $3, priority = $4, category_id = $5, assigned_to = $6,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING %s`, ticketTable, ticketFields)

	updated, err := scanTicket(tx.QueryRow(ctx, query,
		ticket.ID, ticket.Version, ticket.Status, ticket.Priority, ticket.CategoryID, ticket.AssignedTo))
	if err == nil {
		*ticket = *updated
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return apperrors.NewInvalidInputError("la categoría o el agente indicado no existe")
		}
		return err
	}

	// Ни одной строки: либо тикета нет, либо версия уже другая
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1)", ticket.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrVersionConflict
}

func (r *ticketRepository) LockStatus(ctx context.Context, tx pgx.Tx, id uint64) (entities.TicketStatus, error) {
	var status entities.TicketStatus
	err := tx.QueryRow(ctx, "SELECT status FROM "+ticketTable+" WHERE id = $1 FOR SHARE", id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.ErrNotFound
	}
	return status, err
}

func (r *ticketRepository) Delete(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, "DELETE FROM tickets WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
