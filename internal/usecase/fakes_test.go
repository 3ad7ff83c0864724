package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"wesee/internal/database"
	"wesee/internal/domain/profile"
	"wesee/internal/domain/scraper"
	"wesee/internal/domain/task"
	"wesee/internal/infrastructure/crew"
	"wesee/internal/repository"
)

// memProfiles mimics the store's merge-root and replace-children semantics.
type memProfiles struct {
	mu      sync.Mutex
	byURL   map[string]profile.Document
	ids     map[string]int64
	nextID  int64
	saveErr error
	finds   int

	// afterFind runs once the read has been taken, outside the lock.
	afterFind func()
}

func newMemProfiles(docs ...profile.Document) *memProfiles {
	m := &memProfiles{byURL: map[string]profile.Document{}, ids: map[string]int64{}}
	for _, d := range docs {
		_, _ = m.Save(context.Background(), d)
	}
	return m
}

func mergeField(incoming, stored string) string {
	if incoming != "" {
		return incoming
	}
	return stored
}

func (m *memProfiles) Save(_ context.Context, doc profile.Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	if prev, ok := m.byURL[doc.LinkedInURL]; ok {
		doc.Name = mergeField(doc.Name, prev.Name)
		doc.JobTitle = mergeField(doc.JobTitle, prev.JobTitle)
		doc.Company = mergeField(doc.Company, prev.Company)
		doc.Location = mergeField(doc.Location, prev.Location)
		doc.About = mergeField(doc.About, prev.About)
	} else {
		m.nextID++
		m.ids[doc.LinkedInURL] = m.nextID
	}
	m.byURL[doc.LinkedInURL] = doc
	return m.ids[doc.LinkedInURL], nil
}

func (m *memProfiles) FindByURL(_ context.Context, url string) (profile.Document, error) {
	m.mu.Lock()
	m.finds++
	doc, ok := m.byURL[url]
	hook := m.afterFind
	m.afterFind = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return profile.Document{}, profile.ErrNotFound
	}
	return doc, nil
}

func (m *memProfiles) ExistsByURL(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byURL[url]
	return ok, nil
}

func (m *memProfiles) DeleteByURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byURL[url]; !ok {
		return profile.ErrNotFound
	}
	delete(m.byURL, url)
	return nil
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gens  map[string]int64
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}, gens: map[string]int64{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = b
	return nil
}

func (c *memCache) Generation(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key], nil
}

func (c *memCache) Bump(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	return nil
}

// memTasks applies the same conditional transitions as the SQL repository.
type memTasks struct {
	mu         sync.Mutex
	kind       task.Kind
	records    map[string]task.Record
	startErr   error
	createErr  error
	startCalls int

	// successErr fails every MarkSuccess; failureErrs fails that many MarkFailure calls before succeeding.
	successErr   error
	failureErrs  int
	successCalls int
	failureCalls int
}

func newMemTasks(kind task.Kind) *memTasks {
	return &memTasks{kind: kind, records: map[string]task.Record{}}
}

func (r *memTasks) Kind() task.Kind { return r.kind }

func (r *memTasks) Create(_ context.Context, _ database.Querier, id string, p task.Params) (task.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return task.Record{}, r.createErr
	}
	now := time.Now().UTC()
	rec := task.Record{
		TaskID:         id,
		Kind:           r.kind,
		LinkedInURL:    p.LinkedInURL,
		JobDescription: p.JobDescription,
		ForceRefresh:   p.ForceRefresh,
		Status:         task.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.records[id] = rec
	return rec, nil
}

func (r *memTasks) Get(_ context.Context, id string) (task.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return task.Record{}, task.ErrNotFound
	}
	return rec, nil
}

func (r *memTasks) transition(id string, from []task.Status, apply func(*task.Record)) (bool, error) {
	rec, ok := r.records[id]
	if !ok {
		return false, task.ErrNotFound
	}
	for _, s := range from {
		if rec.Status == s {
			apply(&rec)
			rec.UpdatedAt = time.Now().UTC()
			r.records[id] = rec
			return true, nil
		}
	}
	return false, nil
}

func (r *memTasks) MarkStarted(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startCalls++
	if r.startErr != nil {
		return false, r.startErr
	}
	return r.transition(id, []task.Status{task.StatusPending}, func(rec *task.Record) {
		rec.Status = task.StatusStarted
	})
}

func (r *memTasks) MarkSuccess(_ context.Context, id string, result []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successCalls++
	if r.successErr != nil {
		return false, r.successErr
	}
	return r.transition(id, []task.Status{task.StatusPending, task.StatusStarted}, func(rec *task.Record) {
		rec.Status = task.StatusSuccess
		rec.Result = result
	})
}

func (r *memTasks) MarkFailure(_ context.Context, id string, message string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failureCalls++
	if message == "" {
		return false, task.ErrEmptyMessage
	}
	if r.failureCalls <= r.failureErrs {
		return false, errors.New("conn reset by peer")
	}
	return r.transition(id, []task.Status{task.StatusPending, task.StatusStarted}, func(rec *task.Record) {
		rec.Status = task.StatusFailure
		rec.ErrorMessage = message
	})
}

type memOutbox struct {
	mu   sync.Mutex
	msgs []repository.OutboxMessage
	err  error
}

func (o *memOutbox) Enqueue(_ context.Context, _ database.Querier, msg repository.OutboxMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *memOutbox) ClaimPending(context.Context, database.Tx, int) ([]repository.OutboxMessage, error) {
	return nil, nil
}

func (o *memOutbox) MarkSent(context.Context, database.Querier, int64) error { return nil }

func (o *memOutbox) MarkAttemptFailed(context.Context, database.Querier, int64, int, string, bool) error {
	return nil
}

type memScrapers struct {
	accounts []scraper.Account
	nextID   int64
}

func (s *memScrapers) Create(_ context.Context, a scraper.Account) (scraper.Account, error) {
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return scraper.Account{}, scraper.ErrDuplicateEmail
		}
	}
	s.nextID++
	a.ID = s.nextID
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *memScrapers) List(context.Context) ([]scraper.Account, error) {
	return append([]scraper.Account(nil), s.accounts...), nil
}

func (s *memScrapers) Delete(_ context.Context, id int64) error {
	for i, a := range s.accounts {
		if a.ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return scraper.ErrNotFound
}

func (s *memScrapers) Count(context.Context) (int, error) { return len(s.accounts), nil }

func (s *memScrapers) PickRandom(context.Context) (scraper.Account, error) {
	if len(s.accounts) == 0 {
		return scraper.Account{}, scraper.ErrNoCredentials
	}
	return s.accounts[0], nil
}

// reverseSealer is a reversible stand-in for the secretbox.
type reverseSealer struct{}

func (reverseSealer) Seal(p []byte) ([]byte, error) { return reverse(p), nil }
func (reverseSealer) Open(p []byte) ([]byte, error) { return reverse(p), nil }

func reverse(p []byte) []byte {
	out := make([]byte, len(p))
	for i := range p {
		out[len(p)-1-i] = p[i]
	}
	return out
}

type stubScraper struct {
	calls int
	creds scraper.Credentials
	doc   profile.Document
	err   error
	panic any
}

func (s *stubScraper) ScrapePerson(_ context.Context, creds scraper.Credentials, url string) (profile.Document, error) {
	s.calls++
	s.creds = creds
	if s.panic != nil {
		panic(s.panic)
	}
	if s.err != nil {
		return profile.Document{}, s.err
	}
	doc := s.doc
	doc.LinkedInURL = url + "?from=scraper"
	return doc, nil
}

type stubCrew struct {
	calls int
	jd    string
	out   crew.Output
	err   error
}

func (c *stubCrew) Run(_ context.Context, _ profile.Document, jobDescription string) (crew.Output, error) {
	c.calls++
	c.jd = jobDescription
	return c.out, c.err
}
