package dto

import "time"

type UploadResponseDTO struct {
	Path string `json:"path"`
}

type SignedURLDTO struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
