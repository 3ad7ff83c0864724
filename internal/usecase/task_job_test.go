package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wesee/internal/domain/profile"
	"wesee/internal/domain/scraper"
	"wesee/internal/domain/task"
	"wesee/internal/infrastructure/crew"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scrapeFixture struct {
	tasks    *memTasks
	profiles *memProfiles
	scrapers *memScrapers
	engine   *stubScraper
	job      *ScrapeJob
}

func newScrapeFixture(docs ...profile.Document) *scrapeFixture {
	f := &scrapeFixture{
		tasks:    newMemTasks(task.KindScrape),
		profiles: newMemProfiles(docs...),
		scrapers: &memScrapers{},
		engine:   &stubScraper{doc: profile.Document{Name: "Ada Lovelace", JobTitle: "Engineer"}},
	}
	codec := NewProfileCodec(f.profiles, nil, zerolog.Nop())
	creds := NewScraperCredentials(f.scrapers, reverseSealer{}, zerolog.Nop())
	f.job = NewScrapeJob(f.tasks, codec, creds, f.engine, zerolog.Nop())
	return f
}

func (f *scrapeFixture) enqueue(t *testing.T, p task.Params) task.Message {
	t.Helper()
	rec, err := f.tasks.Create(context.Background(), nil, "task-1", p)
	require.NoError(t, err)
	return rec.Message()
}

func (f *scrapeFixture) addCredential(t *testing.T) {
	t.Helper()
	creds := NewScraperCredentials(f.scrapers, reverseSealer{}, zerolog.Nop())
	_, err := creds.Add(context.Background(), AddScraperRequest{Email: "bot@example.com", Password: "hunter2"})
	require.NoError(t, err)
}

func decodeScrapeResult(t *testing.T, b []byte) ScrapeResult {
	t.Helper()
	var res ScrapeResult
	require.NoError(t, json.Unmarshal(b, &res))
	return res
}

func TestScrapeJob_StoredProfileShortCircuits(t *testing.T) {
	f := newScrapeFixture(profile.Document{LinkedInURL: adaURL, Name: "Stored Ada"})
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	rec := f.tasks.records["task-1"]
	assert.Equal(t, task.StatusSuccess, rec.Status)
	res := decodeScrapeResult(t, rec.Result)
	assert.Equal(t, SourceDatabase, res.Source)
	assert.True(t, res.Success)
	assert.Equal(t, "Stored Ada", res.Data.Name)
	assert.Zero(t, f.engine.calls)
}

func TestScrapeJob_NoCredentials(t *testing.T) {
	f := newScrapeFixture()
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	rec := f.tasks.records["task-1"]
	assert.Equal(t, task.StatusFailure, rec.Status)
	assert.Equal(t, "No scraper credentials found. Please contact support.", rec.ErrorMessage)
	assert.Zero(t, f.engine.calls)
}

func TestScrapeJob_ScrapesAndPersists(t *testing.T) {
	f := newScrapeFixture()
	f.addCredential(t)
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	assert.Equal(t, scraper.Credentials{Email: "bot@example.com", Password: "hunter2"}, f.engine.creds)
	rec := f.tasks.records["task-1"]
	require.Equal(t, task.StatusSuccess, rec.Status)
	res := decodeScrapeResult(t, rec.Result)
	assert.Equal(t, SourceScraper, res.Source)
	assert.True(t, res.Persisted)
	assert.Equal(t, adaURL, res.Data.LinkedInURL)

	stored, err := f.profiles.FindByURL(context.Background(), adaURL)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.Name)
}

func TestScrapeJob_ForceRefreshBypassesStore(t *testing.T) {
	f := newScrapeFixture(profile.Document{LinkedInURL: adaURL, Name: "Stored Ada"})
	f.addCredential(t)
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL, ForceRefresh: true})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	assert.Equal(t, 1, f.engine.calls)
	res := decodeScrapeResult(t, f.tasks.records["task-1"].Result)
	assert.Equal(t, SourceScraper, res.Source)
}

func TestScrapeJob_PersistFailureIsFlagged(t *testing.T) {
	f := newScrapeFixture()
	f.addCredential(t)
	f.profiles.saveErr = errors.New("deadlock detected")
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	rec := f.tasks.records["task-1"]
	require.Equal(t, task.StatusSuccess, rec.Status)
	res := decodeScrapeResult(t, rec.Result)
	assert.False(t, res.Persisted)
	assert.Equal(t, "Ada Lovelace", res.Data.Name)
}

func TestScrapeJob_UpstreamFailure(t *testing.T) {
	f := newScrapeFixture()
	f.addCredential(t)
	f.engine.err = errors.New("login: login was rejected")
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	rec := f.tasks.records["task-1"]
	assert.Equal(t, task.StatusFailure, rec.Status)
	assert.Equal(t, "Scraping failed: login: login was rejected", rec.ErrorMessage)
	assert.Nil(t, rec.Result)
}

func TestScrapeJob_PanicBecomesGenericFailure(t *testing.T) {
	f := newScrapeFixture()
	f.addCredential(t)
	f.engine.panic = "nil map"
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	rec := f.tasks.records["task-1"]
	assert.Equal(t, task.StatusFailure, rec.Status)
	assert.Equal(t, "Internal error while processing task", rec.ErrorMessage)
}

func TestScrapeJob_DuplicateDeliveryIsNoop(t *testing.T) {
	f := newScrapeFixture()
	f.addCredential(t)
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))
	require.NoError(t, f.job.Handle(context.Background(), msg))

	assert.Equal(t, 1, f.engine.calls)
	assert.Equal(t, task.StatusSuccess, f.tasks.records["task-1"].Status)
}

func TestScrapeJob_UnknownTaskIsDropped(t *testing.T) {
	f := newScrapeFixture()
	err := f.job.Handle(context.Background(), task.Message{TaskID: "ghost", LinkedInURL: adaURL})
	assert.NoError(t, err)
	assert.Zero(t, f.engine.calls)
}

func TestScrapeJob_StoreDownBeforeStartAsksForRedelivery(t *testing.T) {
	f := newScrapeFixture()
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})
	f.tasks.startErr = errors.New("connection refused")

	err := f.job.Handle(context.Background(), msg)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, task.StatusPending, f.tasks.records["task-1"].Status)
	assert.Zero(t, f.engine.calls)
}

func fastTerminalRetries(t *testing.T) {
	t.Helper()
	prev := terminalRetryDelay
	terminalRetryDelay = time.Millisecond
	t.Cleanup(func() { terminalRetryDelay = prev })
}

func TestScrapeJob_UnwritableResultFallsBackToFailure(t *testing.T) {
	fastTerminalRetries(t)
	f := newScrapeFixture(profile.Document{LinkedInURL: adaURL, Name: "Stored Ada"})
	f.tasks.successErr = errors.New("unsupported Unicode escape sequence (SQLSTATE 22P05)")
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	rec := f.tasks.records["task-1"]
	assert.Equal(t, task.StatusFailure, rec.Status)
	assert.Equal(t, "Internal error while processing task", rec.ErrorMessage)
	assert.Nil(t, rec.Result)
	assert.Equal(t, terminalAttempts, f.tasks.successCalls)
}

func TestScrapeJob_TerminalWriteIsRetried(t *testing.T) {
	fastTerminalRetries(t)
	f := newScrapeFixture()
	f.tasks.failureErrs = terminalAttempts - 1
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	rec := f.tasks.records["task-1"]
	assert.Equal(t, task.StatusFailure, rec.Status)
	assert.Equal(t, "No scraper credentials found. Please contact support.", rec.ErrorMessage)
	assert.Equal(t, terminalAttempts, f.tasks.failureCalls)
}

func TestScrapeJob_TerminalRetriesAreBounded(t *testing.T) {
	fastTerminalRetries(t)
	f := newScrapeFixture()
	f.tasks.failureErrs = terminalAttempts + 5
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	assert.Equal(t, task.StatusStarted, f.tasks.records["task-1"].Status)
	assert.Equal(t, terminalAttempts, f.tasks.failureCalls)
}

func TestScrapeJob_StripsNULFromScrapedText(t *testing.T) {
	f := newScrapeFixture()
	f.addCredential(t)
	f.engine.doc = profile.Document{
		Name:        "Ada\x00 Lovelace",
		Experiences: []profile.Experience{{InstitutionName: "Acme", Description: "line\x00break"}},
	}
	msg := f.enqueue(t, task.Params{LinkedInURL: adaURL})

	require.NoError(t, f.job.Handle(context.Background(), msg))

	rec := f.tasks.records["task-1"]
	require.Equal(t, task.StatusSuccess, rec.Status)
	assert.NotContains(t, string(rec.Result), `\u0000`)
	res := decodeScrapeResult(t, rec.Result)
	assert.Equal(t, "Ada Lovelace", res.Data.Name)

	stored, err := f.profiles.FindByURL(context.Background(), adaURL)
	require.NoError(t, err)
	assert.Equal(t, "linebreak", stored.Experiences[0].Description)
}

func newCVFixture(gen *stubCrew, docs ...profile.Document) (*memTasks, *CVJob) {
	tasks := newMemTasks(task.KindCV)
	codec := NewProfileCodec(newMemProfiles(docs...), nil, zerolog.Nop())
	return tasks, NewCVJob(tasks, codec, gen, zerolog.Nop())
}

func TestCVJob_Success(t *testing.T) {
	gen := &stubCrew{out: crew.Output{Raw: "# Ada Lovelace\n..."}}
	tasks, job := newCVFixture(gen, profile.Document{LinkedInURL: adaURL})
	rec, err := tasks.Create(context.Background(), nil, "cv-1", task.Params{LinkedInURL: adaURL, JobDescription: "Go dev"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), rec.Message()))

	got := tasks.records["cv-1"]
	assert.Equal(t, task.StatusSuccess, got.Status)
	assert.Equal(t, "# Ada Lovelace\n...", string(got.Result))
	assert.Equal(t, "Go dev", gen.jd)
}

func TestCVJob_StripsNULFromOutput(t *testing.T) {
	gen := &stubCrew{out: crew.Output{Raw: "# Ada\x00 Lovelace"}}
	tasks, job := newCVFixture(gen, profile.Document{LinkedInURL: adaURL})
	rec, err := tasks.Create(context.Background(), nil, "cv-1", task.Params{LinkedInURL: adaURL, JobDescription: "Go dev"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), rec.Message()))

	assert.Equal(t, "# Ada Lovelace", string(tasks.records["cv-1"].Result))
}

func TestCVJob_UsesContentWhenRawEmpty(t *testing.T) {
	gen := &stubCrew{out: crew.Output{Content: "fallback cv"}}
	tasks, job := newCVFixture(gen, profile.Document{LinkedInURL: adaURL})
	rec, _ := tasks.Create(context.Background(), nil, "cv-1", task.Params{LinkedInURL: adaURL, JobDescription: "x"})

	require.NoError(t, job.Handle(context.Background(), rec.Message()))
	assert.Equal(t, "fallback cv", string(tasks.records["cv-1"].Result))
}

func TestCVJob_MissingProfile(t *testing.T) {
	gen := &stubCrew{}
	tasks, job := newCVFixture(gen)
	rec, _ := tasks.Create(context.Background(), nil, "cv-1", task.Params{LinkedInURL: adaURL, JobDescription: "x"})

	require.NoError(t, job.Handle(context.Background(), rec.Message()))

	got := tasks.records["cv-1"]
	assert.Equal(t, task.StatusFailure, got.Status)
	assert.Equal(t, "Failed to retrieve LinkedIn data for URL: "+adaURL, got.ErrorMessage)
	assert.Zero(t, gen.calls)
}

func TestCVJob_CrewFailure(t *testing.T) {
	gen := &stubCrew{err: errors.New("step cv: rate limited")}
	tasks, job := newCVFixture(gen, profile.Document{LinkedInURL: adaURL})
	rec, _ := tasks.Create(context.Background(), nil, "cv-1", task.Params{LinkedInURL: adaURL, JobDescription: "x"})

	require.NoError(t, job.Handle(context.Background(), rec.Message()))
	assert.Equal(t, "CV creation failed: step cv: rate limited", tasks.records["cv-1"].ErrorMessage)
}

func TestScraperCredentials(t *testing.T) {
	ctx := context.Background()
	repo := &memScrapers{}
	uc := NewScraperCredentials(repo, reverseSealer{}, zerolog.Nop())

	_, err := uc.Pick(ctx)
	assert.ErrorIs(t, err, scraper.ErrNoCredentials)

	acc, err := uc.Add(ctx, AddScraperRequest{Email: " bot@example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "bot@example.com", acc.Name)
	assert.Equal(t, []byte("wp"), acc.PasswordSealed)

	_, err = uc.Add(ctx, AddScraperRequest{Email: "bot@example.com", Password: "pw"})
	assert.ErrorIs(t, err, scraper.ErrDuplicateEmail)

	_, err = uc.Add(ctx, AddScraperRequest{Email: "nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")

	creds, err := uc.Pick(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pw", creds.Password)

	require.NoError(t, uc.Remove(ctx, acc.ID))
	assert.ErrorIs(t, uc.Remove(ctx, acc.ID), scraper.ErrNotFound)
	assert.Error(t, uc.Remove(ctx, 0))
}
