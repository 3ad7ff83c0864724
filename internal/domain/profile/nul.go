package profile

import "strings"

// StripNUL removes U+0000, which Postgres rejects in TEXT and JSONB values.
func StripNUL(s string) string {
	if strings.IndexByte(s, 0) < 0 {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}

// WithoutNUL returns a copy of d with U+0000 removed from every string field.
func (d Document) WithoutNUL() Document {
	out := Document{
		LinkedInURL: StripNUL(d.LinkedInURL),
		Name:        StripNUL(d.Name),
		JobTitle:    StripNUL(d.JobTitle),
		Company:     StripNUL(d.Company),
		Location:    StripNUL(d.Location),
		About:       StripNUL(d.About),
	}
	if d.Experiences != nil {
		out.Experiences = make([]Experience, len(d.Experiences))
		for i, e := range d.Experiences {
			out.Experiences[i] = Experience{
				InstitutionName: StripNUL(e.InstitutionName),
				LinkedInURL:     StripNUL(e.LinkedInURL),
				Website:         StripNUL(e.Website),
				Industry:        StripNUL(e.Industry),
				Type:            StripNUL(e.Type),
				Headquarters:    StripNUL(e.Headquarters),
				CompanySize:     StripNUL(e.CompanySize),
				Founded:         StripNUL(e.Founded),
				PositionTitle:   StripNUL(e.PositionTitle),
				FromDate:        StripNUL(e.FromDate),
				ToDate:          StripNUL(e.ToDate),
				Duration:        StripNUL(e.Duration),
				Location:        StripNUL(e.Location),
				Description:     StripNUL(e.Description),
			}
		}
	}
	if d.Educations != nil {
		out.Educations = make([]Education, len(d.Educations))
		for i, e := range d.Educations {
			out.Educations[i] = Education{
				InstitutionName: StripNUL(e.InstitutionName),
				LinkedInURL:     StripNUL(e.LinkedInURL),
				Website:         StripNUL(e.Website),
				Industry:        StripNUL(e.Industry),
				Type:            StripNUL(e.Type),
				Headquarters:    StripNUL(e.Headquarters),
				CompanySize:     StripNUL(e.CompanySize),
				Founded:         StripNUL(e.Founded),
				Degree:          StripNUL(e.Degree),
				FromDate:        StripNUL(e.FromDate),
				ToDate:          StripNUL(e.ToDate),
				Description:     StripNUL(e.Description),
			}
		}
	}
	if d.Interests != nil {
		out.Interests = make([]Interest, len(d.Interests))
		for i, in := range d.Interests {
			out.Interests[i] = Interest{Name: StripNUL(in.Name)}
		}
	}
	if d.Accomplishments != nil {
		out.Accomplishments = make([]Accomplishment, len(d.Accomplishments))
		for i, a := range d.Accomplishments {
			out.Accomplishments[i] = Accomplishment{Title: StripNUL(a.Title), Description: StripNUL(a.Description)}
		}
	}
	return out
}
