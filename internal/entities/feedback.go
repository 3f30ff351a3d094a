package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

type TicketFeedback struct {
	ID        uint64      `json:"id" db:"id"`
	TicketID  uint64      `json:"ticket_id" db:"ticket_id"`
	UserID    uuid.UUID   `json:"user_id" db:"user_id"`
	Rating    int         `json:"rating" db:"rating"`
	Comment   null.String `json:"comment" db:"comment"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

type FeedbackStats struct {
	Total        int         `json:"total"`
	Average      float64     `json:"average"`
	Distribution map[int]int `json:"distribution"`
}
