package dto

import "github.com/aarondl/null/v8"

type UpdateUserRoleDTO struct {
	Role               string      `json:"role" validate:"required,user_role"`
	Department         null.String `json:"department" validate:"omitempty,max=100"`
	AssignedCategoryID *uint64     `json:"assigned_category_id" validate:"omitempty,gt=0"`
}
