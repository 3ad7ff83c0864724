// Package linkedin drives an authenticated headless Chrome session against LinkedIn and
// turns rendered profile pages into profile documents.
package linkedin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wesee/internal/config"
	"wesee/internal/domain/profile"
	"wesee/internal/domain/scraper"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// UpstreamError wraps a failure of the browser session or of LinkedIn itself.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

var (
	ErrLoginChallenge = errors.New("login requires a verification challenge")
	ErrLoginRejected  = errors.New("login was rejected")
	ErrEmptyProfile   = errors.New("profile page rendered without a name")
)

type Scraper struct {
	cfg config.ScraperConfig
	log zerolog.Logger
}

func NewScraper(cfg config.ScraperConfig, l zerolog.Logger) *Scraper {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 90 * time.Second
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = "https://www.linkedin.com/login"
	}
	return &Scraper{cfg: cfg, log: l}
}

func (s *Scraper) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}
	if s.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ExecPath))
	}
	return opts
}

// ScrapePerson logs in with creds and renders the profile plus its experience and education
// detail pages. One browser is started per call and torn down before returning.
func (s *Scraper) ScrapePerson(ctx context.Context, creds scraper.Credentials, linkedinURL string) (profile.Document, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	log := s.log.With().Str("linkedin_url", linkedinURL).Logger()

	log.Info().Msg("logging into linkedin")
	if err := s.login(browserCtx, creds); err != nil {
		return profile.Document{}, err
	}

	log.Info().Msg("rendering profile")
	html, err := s.render(browserCtx, linkedinURL, "main h1")
	if err != nil {
		return profile.Document{}, &UpstreamError{Op: "render profile", Err: err}
	}
	doc, err := ParseProfile(html, linkedinURL)
	if err != nil {
		return profile.Document{}, &UpstreamError{Op: "parse profile", Err: err}
	}
	if doc.Name == "" {
		return profile.Document{}, &UpstreamError{Op: "parse profile", Err: ErrEmptyProfile}
	}

	base := strings.TrimRight(linkedinURL, "/")
	if html, err := s.render(browserCtx, base+"/details/experience/", "main"); err == nil {
		if exps, perr := ParseExperienceDetails(html); perr == nil && len(exps) > 0 {
			doc.Experiences = exps
			doc.Company = exps[0].InstitutionName
		}
	} else {
		log.Warn().Err(err).Msg("experience details unavailable, keeping top card list")
	}
	if html, err := s.render(browserCtx, base+"/details/education/", "main"); err == nil {
		if edus, perr := ParseEducationDetails(html); perr == nil && len(edus) > 0 {
			doc.Educations = edus
		}
	} else {
		log.Warn().Err(err).Msg("education details unavailable, keeping top card list")
	}

	log.Info().
		Int("experiences", len(doc.Experiences)).
		Int("educations", len(doc.Educations)).
		Msg("profile scraped")
	return doc, nil
}

func (s *Scraper) login(ctx context.Context, creds scraper.Credentials) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.PageTimeout)
	defer cancel()

	var location string
	err := chromedp.Run(reqCtx,
		chromedp.Navigate(s.cfg.LoginURL),
		chromedp.WaitVisible("#username", chromedp.ByQuery),
		chromedp.SendKeys("#username", creds.Email, chromedp.ByQuery),
		chromedp.SendKeys("#password", creds.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&location),
	)
	if err != nil {
		return &UpstreamError{Op: "login", Err: err}
	}
	switch {
	case strings.Contains(location, "/checkpoint/"):
		return &UpstreamError{Op: "login", Err: ErrLoginChallenge}
	case strings.Contains(location, "/login"), strings.Contains(location, "/uas/"):
		return &UpstreamError{Op: "login", Err: ErrLoginRejected}
	}
	return nil
}

// render navigates to url, waits for sel, scrolls to trigger lazy sections and returns the page HTML.
func (s *Scraper) render(ctx context.Context, url, sel string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.PageTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(reqCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(sel, chromedp.ByQuery),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}
