package profile

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("profile not found")

type Experience struct {
	InstitutionName string `json:"institution_name"`
	LinkedInURL     string `json:"linkedin_url"`
	Website         string `json:"website"`
	Industry        string `json:"industry"`
	Type            string `json:"type"`
	Headquarters    string `json:"headquarters"`
	CompanySize     string `json:"company_size"`
	Founded         string `json:"founded"`
	PositionTitle   string `json:"position_title"`
	FromDate        string `json:"from_date"`
	ToDate          string `json:"to_date"`
	Duration        string `json:"duration"`
	Location        string `json:"location"`
	Description     string `json:"description"`
}

type Education struct {
	InstitutionName string `json:"institution_name"`
	LinkedInURL     string `json:"linkedin_url"`
	Website         string `json:"website"`
	Industry        string `json:"industry"`
	Type            string `json:"type"`
	Headquarters    string `json:"headquarters"`
	CompanySize     string `json:"company_size"`
	Founded         string `json:"founded"`
	Degree          string `json:"degree"`
	FromDate        string `json:"from_date"`
	ToDate          string `json:"to_date"`
	Description     string `json:"description"`
}

type Interest struct {
	Name string
}

type Accomplishment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Document is the nested profile shape exchanged with the scraper, the crew and API clients.
type Document struct {
	LinkedInURL string
	Name        string
	JobTitle    string
	Company     string
	Location    string
	About       string

	Experiences     []Experience
	Educations      []Education
	Interests       []Interest
	Accomplishments []Accomplishment
}

// Repository persists profiles. Implementations must apply Save atomically.
type Repository interface {
	// Save inserts or merges the root row and replaces all child collections.
	Save(ctx context.Context, doc Document) (int64, error)
	FindByURL(ctx context.Context, linkedinURL string) (Document, error)
	ExistsByURL(ctx context.Context, linkedinURL string) (bool, error)
	DeleteByURL(ctx context.Context, linkedinURL string) error
}
