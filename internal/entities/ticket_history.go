package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

type HistoryAction string

const (
	HistoryCreated           HistoryAction = "created"
	HistoryStatusChanged     HistoryAction = "status_changed"
	HistoryAssigned          HistoryAction = "assigned"
	HistoryUnassigned        HistoryAction = "unassigned"
	HistoryPriorityChanged   HistoryAction = "priority_changed"
	HistoryCategoryChanged   HistoryAction = "category_changed"
	HistoryTagAdded          HistoryAction = "tag_added"
	HistoryTagRemoved        HistoryAction = "tag_removed"
	HistoryAttachmentAdded   HistoryAction = "attachment_added"
	HistoryAttachmentDeleted HistoryAction = "attachment_deleted"
)

type TicketHistory struct {
	ID          uint64        `json:"id" db:"id"`
	TicketID    uint64        `json:"ticket_id" db:"ticket_id"`
	ChangedBy   uuid.UUID     `json:"changed_by" db:"changed_by"`
	Action      HistoryAction `json:"action" db:"action"`
	FieldName   null.String   `json:"field_name" db:"field_name"`
	OldValue    null.String   `json:"old_value" db:"old_value"`
	NewValue    null.String   `json:"new_value" db:"new_value"`
	Description null.String   `json:"description" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`

	Actor *ProfileSummary `json:"actor,omitempty" db:"-"`
}
