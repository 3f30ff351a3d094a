package dto

import "github.com/aarondl/null/v8"

type CreateCategoryDTO struct {
	Name        string      `json:"name" validate:"required,trimmed_min=2,max=100"`
	Code        null.String `json:"code" validate:"omitempty,max=100"`
	Description null.String `json:"description" validate:"omitempty,max=500"`
	Type        string      `json:"type" validate:"omitempty,category_type"`
}

type UpdateCategoryDTO struct {
	Name        *string     `json:"name" validate:"omitempty,trimmed_min=2,max=100"`
	Code        null.String `json:"code" validate:"omitempty,max=100"`
	Description null.String `json:"description" validate:"omitempty,max=500"`
	Type        *string     `json:"type" validate:"omitempty,category_type"`
}
