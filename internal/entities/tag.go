package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Tag - метка тикета.
type Tag struct {
	ID          uint64      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Color       string      `json:"color" db:"color"`
	Description null.String `json:"description" db:"description"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// UserTag - метка пользователя (VIP, проблемный клиент и т.п.).
type UserTag struct {
	ID          uint64      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Color       string      `json:"color" db:"color"`
	Description null.String `json:"description" db:"description"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
