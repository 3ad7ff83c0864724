package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wesee/internal/database"
	"wesee/internal/domain/profile"
)

type PostgresProfileRepository struct {
	db database.DB
}

func NewPostgresProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

var _ profile.Repository = (*PostgresProfileRepository)(nil)

// Child tables in delete order. Each cascades from profiles.
var profileChildTables = []string{
	"profile_experiences",
	"profile_educations",
	"profile_interests",
	"profile_accomplishments",
}

// Save upserts the root row, letting non-empty incoming fields win, then replaces every child
// collection. All of it commits or none of it does.
func (r *PostgresProfileRepository) Save(ctx context.Context, doc profile.Document) (int64, error) {
	var id int64
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO profiles (linkedin_url, name, job_title, company, location, about)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (linkedin_url) DO UPDATE SET
			   name       = COALESCE(NULLIF(EXCLUDED.name, ''), profiles.name),
			   job_title  = COALESCE(NULLIF(EXCLUDED.job_title, ''), profiles.job_title),
			   company    = COALESCE(NULLIF(EXCLUDED.company, ''), profiles.company),
			   location   = COALESCE(NULLIF(EXCLUDED.location, ''), profiles.location),
			   about      = COALESCE(NULLIF(EXCLUDED.about, ''), profiles.about),
			   updated_at = now()
			 RETURNING id`,
			doc.LinkedInURL, doc.Name, doc.JobTitle, doc.Company, doc.Location, doc.About,
		)
		if err := row.Scan(&id); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}

		for _, table := range profileChildTables {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE profile_id = $1`, id); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		if err := insertExperiences(ctx, tx, id, doc.Experiences); err != nil {
			return err
		}
		if err := insertEducations(ctx, tx, id, doc.Educations); err != nil {
			return err
		}
		if err := insertInterests(ctx, tx, id, doc.Interests); err != nil {
			return err
		}
		return insertAccomplishments(ctx, tx, id, doc.Accomplishments)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindByURL reads the root row and all four ordered collections in one statement so the
// result reflects a single snapshot.
func (r *PostgresProfileRepository) FindByURL(ctx context.Context, linkedinURL string) (profile.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT p.linkedin_url, p.name, p.job_title, p.company, p.location, p.about,
		   COALESCE((SELECT json_agg(json_build_object(
		       'institution_name', e.institution_name, 'linkedin_url', e.linkedin_url,
		       'website', e.website, 'industry', e.industry, 'type', e.type,
		       'headquarters', e.headquarters, 'company_size', e.company_size,
		       'founded', e.founded, 'position_title', e.position_title,
		       'from_date', e.from_date, 'to_date', e.to_date, 'duration', e.duration,
		       'location', e.location, 'description', e.description) ORDER BY e.id)
		     FROM profile_experiences e WHERE e.profile_id = p.id), '[]')::text,
		   COALESCE((SELECT json_agg(json_build_object(
		       'institution_name', d.institution_name, 'linkedin_url', d.linkedin_url,
		       'website', d.website, 'industry', d.industry, 'type', d.type,
		       'headquarters', d.headquarters, 'company_size', d.company_size,
		       'founded', d.founded, 'degree', d.degree, 'from_date', d.from_date,
		       'to_date', d.to_date, 'description', d.description) ORDER BY d.id)
		     FROM profile_educations d WHERE d.profile_id = p.id), '[]')::text,
		   COALESCE((SELECT json_agg(i.name ORDER BY i.id)
		     FROM profile_interests i WHERE i.profile_id = p.id), '[]')::text,
		   COALESCE((SELECT json_agg(json_build_object('title', a.title, 'description', a.description) ORDER BY a.id)
		     FROM profile_accomplishments a WHERE a.profile_id = p.id), '[]')::text
		 FROM profiles p
		 WHERE p.linkedin_url = $1`,
		linkedinURL,
	)

	var doc profile.Document
	var exps, edus, interests, accs string
	err := row.Scan(&doc.LinkedInURL, &doc.Name, &doc.JobTitle, &doc.Company, &doc.Location, &doc.About,
		&exps, &edus, &interests, &accs)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return profile.Document{}, profile.ErrNotFound
		}
		return profile.Document{}, fmt.Errorf("find profile: %w", err)
	}

	if err := json.Unmarshal([]byte(exps), &doc.Experiences); err != nil {
		return profile.Document{}, fmt.Errorf("decode experiences: %w", err)
	}
	if err := json.Unmarshal([]byte(edus), &doc.Educations); err != nil {
		return profile.Document{}, fmt.Errorf("decode educations: %w", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(interests), &names); err != nil {
		return profile.Document{}, fmt.Errorf("decode interests: %w", err)
	}
	for _, n := range names {
		doc.Interests = append(doc.Interests, profile.Interest{Name: n})
	}
	if err := json.Unmarshal([]byte(accs), &doc.Accomplishments); err != nil {
		return profile.Document{}, fmt.Errorf("decode accomplishments: %w", err)
	}

	if len(doc.Experiences) == 0 {
		doc.Experiences = nil
	}
	if len(doc.Educations) == 0 {
		doc.Educations = nil
	}
	if len(doc.Accomplishments) == 0 {
		doc.Accomplishments = nil
	}
	return doc, nil
}

func (r *PostgresProfileRepository) ExistsByURL(ctx context.Context, linkedinURL string) (bool, error) {
	var ok bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE linkedin_url = $1)`, linkedinURL)
	if err := row.Scan(&ok); err != nil {
		return false, fmt.Errorf("profile exists: %w", err)
	}
	return ok, nil
}

func (r *PostgresProfileRepository) DeleteByURL(ctx context.Context, linkedinURL string) error {
	n, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE linkedin_url = $1`, linkedinURL)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func insertExperiences(ctx context.Context, q database.Querier, profileID int64, items []profile.Experience) error {
	rows := make([][]any, 0, len(items))
	for _, e := range items {
		rows = append(rows, []any{profileID,
			e.InstitutionName, e.LinkedInURL, e.Website, e.Industry, e.Type, e.Headquarters,
			e.CompanySize, e.Founded, e.PositionTitle, e.FromDate, e.ToDate, e.Duration,
			e.Location, e.Description,
		})
	}
	return insertRows(ctx, q, "profile_experiences", []string{"profile_id",
		"institution_name", "linkedin_url", "website", "industry", "type", "headquarters",
		"company_size", "founded", "position_title", "from_date", "to_date", "duration",
		"location", "description",
	}, rows)
}

func insertEducations(ctx context.Context, q database.Querier, profileID int64, items []profile.Education) error {
	rows := make([][]any, 0, len(items))
	for _, e := range items {
		rows = append(rows, []any{profileID,
			e.InstitutionName, e.LinkedInURL, e.Website, e.Industry, e.Type, e.Headquarters,
			e.CompanySize, e.Founded, e.Degree, e.FromDate, e.ToDate, e.Description,
		})
	}
	return insertRows(ctx, q, "profile_educations", []string{"profile_id",
		"institution_name", "linkedin_url", "website", "industry", "type", "headquarters",
		"company_size", "founded", "degree", "from_date", "to_date", "description",
	}, rows)
}

func insertInterests(ctx context.Context, q database.Querier, profileID int64, items []profile.Interest) error {
	rows := make([][]any, 0, len(items))
	for _, in := range items {
		if in.Name == "" {
			continue
		}
		rows = append(rows, []any{profileID, in.Name})
	}
	return insertRows(ctx, q, "profile_interests", []string{"profile_id", "name"}, rows)
}

func insertAccomplishments(ctx context.Context, q database.Querier, profileID int64, items []profile.Accomplishment) error {
	rows := make([][]any, 0, len(items))
	for _, a := range items {
		if a.Title == "" {
			continue
		}
		rows = append(rows, []any{profileID, a.Title, a.Description})
	}
	return insertRows(ctx, q, "profile_accomplishments", []string{"profile_id", "title", "description"}, rows)
}

// insertRows writes rows with a single multi-VALUES statement. Row order becomes id order.
func insertRows(ctx context.Context, q database.Querier, table string, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("insert %s: row %d has %d values, want %d", table, i, len(row), len(cols))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+j+1)
		}
		sb.WriteByte(')')
		args = append(args, row...)
	}

	if _, err := q.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
