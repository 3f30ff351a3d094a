package entities

import (
	"github.com/aarondl/null/v8"

	"antares-helpdesk/pkg/types"
)

type CategoryType string

const (
	CategoryTypeTicket CategoryType = "ticket"
	CategoryTypeUser   CategoryType = "user"
)

func (t CategoryType) Valid() bool {
	return t == CategoryTypeTicket || t == CategoryTypeUser
}

type Category struct {
	ID          uint64       `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Code        null.String  `json:"code" db:"code"`
	Description null.String  `json:"description" db:"description"`
	Type        CategoryType `json:"type" db:"type"`

	types.BaseEntity
}
