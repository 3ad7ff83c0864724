package seeder

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"wesee/internal/domain/profile"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// Fixtures is the bundled set of sample profile documents.
func Fixtures() fs.FS {
	sub, err := fs.Sub(fixtures, "fixtures")
	if err != nil {
		panic(err)
	}
	return sub
}

type ProfileSaver interface {
	Upsert(ctx context.Context, doc profile.Document) (int64, error)
}

// ProfileSeeder stores every *.json document in Files. Re-running it refreshes the same rows.
type ProfileSeeder struct {
	Profiles ProfileSaver
	Files    fs.FS
}

func (ProfileSeeder) Name() string { return "profiles" }

func (s ProfileSeeder) Run(ctx context.Context) error {
	names, err := fs.Glob(s.Files, "*.json")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := fs.ReadFile(s.Files, name)
		if err != nil {
			return err
		}
		var doc profile.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("%s: %w", path.Base(name), err)
		}
		doc.LinkedInURL = profile.NormalizeURL(doc.LinkedInURL)
		if _, err := s.Profiles.Upsert(ctx, doc); err != nil {
			return fmt.Errorf("%s: %w", path.Base(name), err)
		}
	}
	return nil
}
