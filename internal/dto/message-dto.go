package dto

import "github.com/aarondl/null/v8"

type CreateMessageDTO struct {
	Body          string      `json:"body" validate:"required,notblank,max=5000"`
	AttachmentURL null.String `json:"attachment_url" validate:"omitempty,max=500"`
}
