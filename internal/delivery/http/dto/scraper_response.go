package dto

import (
	"time"

	"wesee/internal/domain/scraper"
)

// ScraperResponse never carries the sealed password.
type ScraperResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewScraperResponse(a scraper.Account) ScraperResponse {
	return ScraperResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func NewScraperListResponse(accounts []scraper.Account) []ScraperResponse {
	out := make([]ScraperResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewScraperResponse(a))
	}
	return out
}
