package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var embedded embed.FS

// Files exposes the embedded migration set, rooted at the migration directory.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

type Runner struct {
	Log zerolog.Logger
}

func (r Runner) provider(db *sql.DB) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, Files())
	if err != nil {
		return nil, fmt.Errorf("migration provider: %w", err)
	}
	return p, nil
}

// Run applies every pending migration.
func (r Runner) Run(ctx context.Context, db *sql.DB) error {
	p, err := r.provider(db)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		r.Log.Info().
			Int64("version", res.Source.Version).
			Str("path", res.Source.Path).
			Dur("took", res.Duration).
			Msg("migration applied")
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (r Runner) Down(ctx context.Context, db *sql.DB) error {
	p, err := r.provider(db)
	if err != nil {
		return err
	}
	res, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if res != nil && res.Source != nil {
		r.Log.Info().Int64("version", res.Source.Version).Str("path", res.Source.Path).Msg("migration rolled back")
	}
	return nil
}

type Status struct {
	Version int64
	Path    string
	Applied bool
}

func (r Runner) Status(ctx context.Context, db *sql.DB) ([]Status, error) {
	p, err := r.provider(db)
	if err != nil {
		return nil, err
	}
	sts, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}
	out := make([]Status, 0, len(sts))
	for _, s := range sts {
		if s == nil || s.Source == nil {
			continue
		}
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
