package domain

import (
	"context"
	"time"
)

// ReviewJob содержит объявление, ожидающее ручной модерации.
type ReviewJob struct {
	ID          string    `json:"job_id"`
	ListingID   string    `json:"listing_id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	MatchedTerm string    `json:"matched_term"`
	RequestedAt time.Time `json:"requested_at"`
	// Attempts — число неудачных попыток отправить алерт.
	Attempts int `json:"attempts,omitempty"`
}

// ReviewQueue описывает очередь объявлений на ручную модерацию.
type ReviewQueue interface {
	Enqueue(ctx context.Context, job ReviewJob) error
	Pop(ctx context.Context) (ReviewJob, error)
}
