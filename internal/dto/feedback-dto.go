package dto

import "github.com/aarondl/null/v8"

type CreateFeedbackDTO struct {
	Rating  int         `json:"rating" validate:"required,min=1,max=5"`
	Comment null.String `json:"comment" validate:"omitempty,max=1000"`
}
