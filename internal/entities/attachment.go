package entities

import (
	"time"

	"github.com/google/uuid"
)

type Attachment struct {
	ID         uint64    `json:"id" db:"id"`
	TicketID   *uint64   `json:"ticket_id" db:"ticket_id"`
	MessageID  *uint64   `json:"message_id" db:"message_id"`
	FileName   string    `json:"file_name" db:"file_name"`
	FilePath   string    `json:"file_path" db:"file_path"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	FileType   string    `json:"file_type" db:"file_type"`
	UploadedBy uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
