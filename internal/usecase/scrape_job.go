package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"wesee/internal/domain/profile"
	"wesee/internal/domain/scraper"
	"wesee/internal/domain/task"

	"github.com/rs/zerolog"
)

const (
	SourceDatabase = "database"
	SourceScraper  = "scraper"

	noCredentialsMessage = "No scraper credentials found. Please contact support."
)

type ProfileScraper interface {
	ScrapePerson(ctx context.Context, creds scraper.Credentials, linkedinURL string) (profile.Document, error)
}

type CredentialPicker interface {
	Pick(ctx context.Context) (scraper.Credentials, error)
}

// ScrapeResult is stored as the result of a successful scrape task.
type ScrapeResult struct {
	Success   bool             `json:"success"`
	Source    string           `json:"source"`
	Persisted bool             `json:"persisted"`
	Data      profile.Document `json:"data"`
}

type ScrapeJob struct {
	tasks    task.Repository
	profiles ProfileUsecase
	creds    CredentialPicker
	scraper  ProfileScraper
	log      zerolog.Logger
}

func NewScrapeJob(tasks task.Repository, profiles ProfileUsecase, creds CredentialPicker, s ProfileScraper, l zerolog.Logger) *ScrapeJob {
	return &ScrapeJob{tasks: tasks, profiles: profiles, creds: creds, scraper: s, log: l}
}

func (j *ScrapeJob) Kind() task.Kind { return task.KindScrape }

func (j *ScrapeJob) Handle(ctx context.Context, msg task.Message) error {
	return runTask(ctx, j.tasks, j.log, msg, func(ctx context.Context) ([]byte, error) {
		res, err := j.scrape(ctx, msg)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
}

func (j *ScrapeJob) scrape(ctx context.Context, msg task.Message) (ScrapeResult, error) {
	url := msg.LinkedInURL

	if !msg.ForceRefresh {
		exists, err := j.profiles.Exists(ctx, url)
		if err != nil {
			return ScrapeResult{}, err
		}
		if exists {
			doc, err := j.profiles.Fetch(ctx, url)
			switch {
			case err == nil:
				j.log.Info().Str("linkedin_url", url).Msg("profile already stored, skipping scrape")
				return ScrapeResult{Success: true, Source: SourceDatabase, Persisted: true, Data: doc}, nil
			case !errors.Is(err, profile.ErrNotFound):
				return ScrapeResult{}, err
			}
		}
	}

	creds, err := j.creds.Pick(ctx)
	if errors.Is(err, scraper.ErrNoCredentials) {
		return ScrapeResult{}, failf(noCredentialsMessage)
	}
	if err != nil {
		return ScrapeResult{}, err
	}

	doc, err := j.scraper.ScrapePerson(ctx, creds, url)
	if err != nil {
		return ScrapeResult{}, failf("Scraping failed: %v", err)
	}
	doc = doc.WithoutNUL()
	doc.LinkedInURL = url

	persisted := true
	if _, err := j.profiles.Upsert(ctx, doc); err != nil {
		persisted = false
		j.log.Error().Err(err).Str("linkedin_url", url).Msg("scraped profile could not be saved")
	}

	return ScrapeResult{Success: true, Source: SourceScraper, Persisted: persisted, Data: doc}, nil
}
