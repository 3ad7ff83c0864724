package usecase

import (
	"context"
	"fmt"
	"strings"

	"wesee/internal/domain/scraper"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type AddScraperRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ScraperCredentialUsecase interface {
	Add(ctx context.Context, req AddScraperRequest) (scraper.Account, error)
	List(ctx context.Context) ([]scraper.Account, error)
	Remove(ctx context.Context, id int64) error
	Pick(ctx context.Context) (scraper.Credentials, error)
}

// ScraperCredentials manages the LinkedIn logins used by the scrape worker. Passwords are
// sealed before they reach the store.
type ScraperCredentials struct {
	repo     scraper.Repository
	box      Sealer
	validate *validator.Validate
	log      zerolog.Logger
}

func NewScraperCredentials(repo scraper.Repository, box Sealer, l zerolog.Logger) *ScraperCredentials {
	return &ScraperCredentials{repo: repo, box: box, validate: NewValidator(), log: l}
}

func (u *ScraperCredentials) Add(ctx context.Context, req AddScraperRequest) (scraper.Account, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := u.validate.Struct(req); err != nil {
		return scraper.Account{}, toValidationError(err)
	}
	if req.Name == "" {
		req.Name = req.Email
	}

	sealed, err := u.box.Seal([]byte(req.Password))
	if err != nil {
		return scraper.Account{}, fmt.Errorf("seal password: %w", err)
	}

	acc, err := u.repo.Create(ctx, scraper.Account{Name: req.Name, Email: req.Email, PasswordSealed: sealed})
	if err != nil {
		return scraper.Account{}, err
	}
	u.log.Info().Int64("scraper_id", acc.ID).Str("email", acc.Email).Msg("scraper credential added")
	return acc, nil
}

func (u *ScraperCredentials) List(ctx context.Context) ([]scraper.Account, error) {
	return u.repo.List(ctx)
}

func (u *ScraperCredentials) Remove(ctx context.Context, id int64) error {
	if id <= 0 {
		return fieldError("id", "must be a positive integer")
	}
	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}
	u.log.Info().Int64("scraper_id", id).Msg("scraper credential removed")
	return nil
}

// Pick returns a randomly chosen unsealed login, or scraper.ErrNoCredentials.
func (u *ScraperCredentials) Pick(ctx context.Context) (scraper.Credentials, error) {
	acc, err := u.repo.PickRandom(ctx)
	if err != nil {
		return scraper.Credentials{}, err
	}
	password, err := u.box.Open(acc.PasswordSealed)
	if err != nil {
		return scraper.Credentials{}, fmt.Errorf("open password for scraper %d: %w", acc.ID, err)
	}
	return scraper.Credentials{Email: acc.Email, Password: string(password)}, nil
}
