package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldError reports a structurally invalid profile document.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Decode builds a Document from a loosely typed mapping such as a scraper payload.
// Missing or null fields become empty strings. Interest and accomplishment items may be
// bare scalars; falsy ones are dropped. Unknown keys are ignored.
func Decode(raw map[string]any) (Document, error) {
	doc := Document{
		LinkedInURL: text(raw["linkedin_url"]),
		Name:        text(raw["name"]),
		JobTitle:    text(raw["job_title"]),
		Company:     text(raw["company"]),
		Location:    text(raw["location"]),
		About:       text(raw["about"]),
	}

	items, err := list(raw, "experiences")
	if err != nil {
		return Document{}, err
	}
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return Document{}, &FieldError{Field: fmt.Sprintf("experiences[%d]", i), Reason: "must be an object"}
		}
		doc.Experiences = append(doc.Experiences, Experience{
			InstitutionName: text(m["institution_name"]),
			LinkedInURL:     text(m["linkedin_url"]),
			Website:         text(m["website"]),
			Industry:        text(m["industry"]),
			Type:            text(m["type"]),
			Headquarters:    text(m["headquarters"]),
			CompanySize:     text(m["company_size"]),
			Founded:         text(m["founded"]),
			PositionTitle:   text(m["position_title"]),
			FromDate:        text(m["from_date"]),
			ToDate:          text(m["to_date"]),
			Duration:        text(m["duration"]),
			Location:        text(m["location"]),
			Description:     text(m["description"]),
		})
	}

	items, err = list(raw, "educations")
	if err != nil {
		return Document{}, err
	}
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return Document{}, &FieldError{Field: fmt.Sprintf("educations[%d]", i), Reason: "must be an object"}
		}
		doc.Educations = append(doc.Educations, Education{
			InstitutionName: text(m["institution_name"]),
			LinkedInURL:     text(m["linkedin_url"]),
			Website:         text(m["website"]),
			Industry:        text(m["industry"]),
			Type:            text(m["type"]),
			Headquarters:    text(m["headquarters"]),
			CompanySize:     text(m["company_size"]),
			Founded:         text(m["founded"]),
			Degree:          text(m["degree"]),
			FromDate:        text(m["from_date"]),
			ToDate:          text(m["to_date"]),
			Description:     text(m["description"]),
		})
	}

	items, err = list(raw, "interests")
	if err != nil {
		return Document{}, err
	}
	for _, it := range items {
		var name string
		if m, ok := it.(map[string]any); ok {
			name = text(m["name"])
		} else {
			name = scalar(it)
		}
		if name == "" {
			continue
		}
		doc.Interests = append(doc.Interests, Interest{Name: name})
	}

	items, err = list(raw, "accomplishments")
	if err != nil {
		return Document{}, err
	}
	for _, it := range items {
		var acc Accomplishment
		if m, ok := it.(map[string]any); ok {
			acc = Accomplishment{Title: text(m["title"]), Description: text(m["description"])}
		} else {
			acc = Accomplishment{Title: scalar(it)}
		}
		if acc.Title == "" {
			continue
		}
		doc.Accomplishments = append(doc.Accomplishments, acc)
	}

	return doc, nil
}

func (d *Document) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return &FieldError{Reason: "profile must be a JSON object"}
	}
	if raw == nil {
		return &FieldError{Reason: "profile must be a JSON object"}
	}

	doc, err := Decode(raw)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

type wireDocument struct {
	LinkedInURL     string           `json:"linkedin_url"`
	Name            string           `json:"name"`
	JobTitle        string           `json:"job_title"`
	Company         string           `json:"company"`
	Location        string           `json:"location"`
	About           string           `json:"about"`
	Experiences     []Experience     `json:"experiences"`
	Educations      []Education      `json:"educations"`
	Interests       []string         `json:"interests"`
	Accomplishments []Accomplishment `json:"accomplishments"`
}

// MarshalJSON always emits every collection, empty ones as [].
func (d Document) MarshalJSON() ([]byte, error) {
	w := wireDocument{
		LinkedInURL:     d.LinkedInURL,
		Name:            d.Name,
		JobTitle:        d.JobTitle,
		Company:         d.Company,
		Location:        d.Location,
		About:           d.About,
		Experiences:     d.Experiences,
		Educations:      d.Educations,
		Interests:       make([]string, 0, len(d.Interests)),
		Accomplishments: d.Accomplishments,
	}
	for _, in := range d.Interests {
		w.Interests = append(w.Interests, in.Name)
	}
	if w.Experiences == nil {
		w.Experiences = []Experience{}
	}
	if w.Educations == nil {
		w.Educations = []Education{}
	}
	if w.Accomplishments == nil {
		w.Accomplishments = []Accomplishment{}
	}
	return json.Marshal(w)
}

func list(raw map[string]any, key string) ([]any, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &FieldError{Field: key, Reason: "must be a list"}
	}
	return items, nil
}

// scalar stringifies a bare list item, mapping falsy values to "".
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if !t {
			return ""
		}
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
	case float64:
		if t == 0 {
			return ""
		}
	case int:
		if t == 0 {
			return ""
		}
	}
	return text(v)
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return StripNUL(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
