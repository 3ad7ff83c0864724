package scraper

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("scraper credential not found")
	ErrNoCredentials  = errors.New("no scraper credentials found")
	ErrDuplicateEmail = errors.New("scraper email already registered")
)

// Account is a LinkedIn login used by the scraping engine. PasswordSealed is never plaintext.
type Account struct {
	ID             int64
	Name           string
	Email          string
	PasswordSealed []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Credentials is an unsealed login handed to the browser session.
type Credentials struct {
	Email    string
	Password string
}

type Repository interface {
	Create(ctx context.Context, a Account) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	// PickRandom returns one account chosen uniformly, or ErrNoCredentials.
	PickRandom(ctx context.Context) (Account, error)
}
