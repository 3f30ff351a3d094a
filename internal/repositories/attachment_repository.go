package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antares-helpdesk/internal/entities"
	apperrors "antares-helpdesk/pkg/errors"
)

const attachmentFields = "id, ticket_id, message_id, file_name, file_path, file_size, file_type, uploaded_by, created_at"

type AttachmentRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, attachment *entities.Attachment) error
	FindByID(ctx context.Context, id uint64) (*entities.Attachment, error)
	ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Attachment, error)
	ListByMessage(ctx context.Context, messageID uint64) ([]entities.Attachment, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type attachmentRepository struct {
	storage *pgxpool.Pool
}

func NewAttachmentRepository(storage *pgxpool.Pool) AttachmentRepositoryInterface {
	return &attachmentRepository{storage: storage}
}

func scanAttachment(row pgx.Row) (*entities.Attachment, error) {
	var a entities.Attachment
	err := row.Scan(&a.ID, &a.TicketID, &a.MessageID, &a.FileName, &a.FilePath, &a.FileSize, &a.FileType, &a.UploadedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *attachmentRepository) list(ctx context.Context, where string, id uint64) ([]entities.Attachment, error) {
	rows, err := r.storage.Query(ctx, "SELECT "+attachmentFields+" FROM attachments WHERE "+where+" = $1 ORDER BY created_at, id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]entities.Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *a)
	}
	return attachments, rows.Err()
}

func (r *attachmentRepository) Create(ctx context.Context, tx pgx.Tx, attachment *entities.Attachment) error {
	query := `
		INSERT INTO attachments (ticket_id, message_id, file_name, file_path, file_size, file_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		attachment.TicketID, attachment.MessageID, attachment.FileName, attachment.FilePath,
		attachment.FileSize, attachment.FileType, attachment.UploadedBy,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) FindByID(ctx context.Context, id uint64) (*entities.Attachment, error) {
	return scanAttachment(r.storage.QueryRow(ctx, "SELECT "+attachmentFields+" FROM attachments WHERE id = $1", id))
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID uint64) ([]entities.Attachment, error) {
	return r.list(ctx, "ticket_id", ticketID)
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID uint64) ([]entities.Attachment, error) {
	return r.list(ctx, "message_id", messageID)
}

func (r *attachmentRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	tag, err := tx.Exec(ctx, "DELETE FROM attachments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
