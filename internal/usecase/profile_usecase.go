package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"wesee/internal/domain/profile"

	"github.com/rs/zerolog"
)

// ProfileCache stores documents under generation-versioned keys. A write bumps the
// generation, so a fill racing a write lands under a key no reader will ask for again.
type ProfileCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) error
}

// ProfileUsecase maps profile documents to and from the profile store.
type ProfileUsecase interface {
	Upsert(ctx context.Context, doc profile.Document) (int64, error)
	Fetch(ctx context.Context, linkedinURL string) (profile.Document, error)
	Exists(ctx context.Context, linkedinURL string) (bool, error)
	Delete(ctx context.Context, linkedinURL string) error
}

type ProfileCodec struct {
	repo  profile.Repository
	cache ProfileCache
	log   zerolog.Logger
}

// NewProfileCodec wires the codec. cache may be nil.
func NewProfileCodec(repo profile.Repository, cache ProfileCache, l zerolog.Logger) *ProfileCodec {
	return &ProfileCodec{repo: repo, cache: cache, log: l}
}

// DecodeProfile parses a JSON profile document, reporting structural problems as a ValidationError.
func DecodeProfile(b []byte) (profile.Document, error) {
	var doc profile.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return profile.Document{}, toValidationError(err)
	}
	return doc, nil
}

// Upsert stores doc under its URL. The URL is used as given; NUL characters are dropped.
func (u *ProfileCodec) Upsert(ctx context.Context, doc profile.Document) (int64, error) {
	doc = doc.WithoutNUL()
	if strings.TrimSpace(doc.LinkedInURL) == "" {
		return 0, fieldError("linkedin_url", "is required")
	}

	id, err := u.repo.Save(ctx, doc)
	if err != nil {
		return 0, err
	}
	u.invalidate(ctx, doc.LinkedInURL)

	u.log.Info().
		Int64("profile_id", id).
		Str("linkedin_url", doc.LinkedInURL).
		Int("experiences", len(doc.Experiences)).
		Int("educations", len(doc.Educations)).
		Msg("profile saved")
	return id, nil
}

// Fetch returns the stored document for an exact URL match, or profile.ErrNotFound.
func (u *ProfileCodec) Fetch(ctx context.Context, linkedinURL string) (profile.Document, error) {
	if u.cache == nil {
		return u.repo.FindByURL(ctx, linkedinURL)
	}

	// the generation must be read before the store
	gen, err := u.cache.Generation(ctx, profile.GenerationKey(linkedinURL))
	if err != nil {
		u.log.Debug().Err(err).Str("linkedin_url", linkedinURL).Msg("profile cache generation unavailable")
		return u.repo.FindByURL(ctx, linkedinURL)
	}
	key := profile.CacheKey(linkedinURL, gen)

	var cached profile.Document
	if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		u.log.Debug().Str("key", key).Msg("profile cache hit")
		return cached, nil
	}

	doc, err := u.repo.FindByURL(ctx, linkedinURL)
	if err != nil {
		return profile.Document{}, err
	}

	if err := u.cache.SetJSON(ctx, key, doc, 0); err != nil {
		u.log.Debug().Err(err).Str("key", key).Msg("profile cache fill failed")
	}
	return doc, nil
}

func (u *ProfileCodec) Exists(ctx context.Context, linkedinURL string) (bool, error) {
	return u.repo.ExistsByURL(ctx, linkedinURL)
}

func (u *ProfileCodec) Delete(ctx context.Context, linkedinURL string) error {
	if err := u.repo.DeleteByURL(ctx, linkedinURL); err != nil {
		return err
	}
	u.invalidate(ctx, linkedinURL)
	u.log.Info().Str("linkedin_url", linkedinURL).Msg("profile deleted")
	return nil
}

func (u *ProfileCodec) invalidate(ctx context.Context, linkedinURL string) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Bump(ctx, profile.GenerationKey(linkedinURL)); err != nil {
		u.log.Warn().Err(err).Str("linkedin_url", linkedinURL).Msg("profile cache invalidation failed")
	}
}

