package repository

import (
	"context"
	"errors"
	"fmt"

	"wesee/internal/database"
	"wesee/internal/domain/scraper"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresScraperRepository struct {
	db database.DB
}

func NewPostgresScraperRepository(db database.DB) *PostgresScraperRepository {
	return &PostgresScraperRepository{db: db}
}

var _ scraper.Repository = (*PostgresScraperRepository)(nil)

func (r *PostgresScraperRepository) Create(ctx context.Context, a scraper.Account) (scraper.Account, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO scrapers (name, email, password_sealed)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		a.Name, a.Email, a.PasswordSealed,
	)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return scraper.Account{}, scraper.ErrDuplicateEmail
		}
		return scraper.Account{}, fmt.Errorf("create scraper: %w", err)
	}
	return a, nil
}

func (r *PostgresScraperRepository) List(ctx context.Context) ([]scraper.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, created_at, updated_at
		 FROM scrapers
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list scrapers: %w", err)
	}
	defer rows.Close()

	out := make([]scraper.Account, 0)
	for rows.Next() {
		var a scraper.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan scraper: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scrapers: %w", err)
	}
	return out, nil
}

func (r *PostgresScraperRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.db.Exec(ctx, `DELETE FROM scrapers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scraper: %w", err)
	}
	if n == 0 {
		return scraper.ErrNotFound
	}
	return nil
}

func (r *PostgresScraperRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM scrapers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scrapers: %w", err)
	}
	return n, nil
}

func (r *PostgresScraperRepository) PickRandom(ctx context.Context) (scraper.Account, error) {
	var a scraper.Account
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, password_sealed, created_at, updated_at
		 FROM scrapers
		 ORDER BY random()
		 LIMIT 1`,
	).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordSealed, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return scraper.Account{}, scraper.ErrNoCredentials
		}
		return scraper.Account{}, fmt.Errorf("pick scraper: %w", err)
	}
	return a, nil
}
