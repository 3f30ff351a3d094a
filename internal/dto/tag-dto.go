package dto

import "github.com/aarondl/null/v8"

// TagDTO используется и для меток тикетов, и для меток пользователей.
type TagDTO struct {
	Name        string      `json:"name" validate:"required,notblank,max=50"`
	Color       string      `json:"color" validate:"hexcolor_or_empty"`
	Description null.String `json:"description" validate:"omitempty,max=255"`
}
