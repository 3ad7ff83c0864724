package seeder

import (
	"context"
	"errors"

	"wesee/internal/domain/scraper"
	"wesee/internal/usecase"
)

type CredentialAdder interface {
	Add(ctx context.Context, req usecase.AddScraperRequest) (scraper.Account, error)
}

// ScraperSeeder registers bootstrap scraper accounts. Accounts already present are left alone.
type ScraperSeeder struct {
	Credentials CredentialAdder
	Accounts    []usecase.AddScraperRequest
}

func (ScraperSeeder) Name() string { return "scrapers" }

func (s ScraperSeeder) Run(ctx context.Context) error {
	for _, acc := range s.Accounts {
		if _, err := s.Credentials.Add(ctx, acc); err != nil && !errors.Is(err, scraper.ErrDuplicateEmail) {
			return err
		}
	}
	return nil
}
