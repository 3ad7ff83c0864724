package linkedin

import (
	"strings"

	"wesee/internal/domain/profile"

	"github.com/PuerkitoBio/goquery"
)

const (
	listItemSel = "li.artdeco-list__item, li.pvs-list__paged-list-item"
	visibleSel  = `span[aria-hidden="true"]`
)

// accomplishment sections in the order they are collected.
var accomplishmentAnchors = []string{
	"honors_and_awards",
	"licenses_and_certifications",
	"publications",
	"projects",
	"courses",
}

// ParseProfile extracts the top-card and section data from a rendered profile page.
func ParseProfile(html, linkedinURL string) (profile.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return profile.Document{}, err
	}

	out := profile.Document{
		LinkedInURL: linkedinURL,
		Name:        clean(doc.Find("main h1").First().Text()),
		JobTitle:    clean(doc.Find("main .text-body-medium.break-words").First().Text()),
		Location:    clean(doc.Find("main .text-body-small.inline.t-black--light.break-words").First().Text()),
		About:       clean(section(doc, "about").Find(".inline-show-more-text " + visibleSel).First().Text()),
	}

	out.Experiences = parseExperienceItems(section(doc, "experience").Find(listItemSel))
	out.Educations = parseEducationItems(section(doc, "education").Find(listItemSel))

	section(doc, "interests").Find(listItemSel).Each(func(_ int, li *goquery.Selection) {
		if texts := visibleTexts(li); len(texts) > 0 {
			out.Interests = append(out.Interests, profile.Interest{Name: texts[0]})
		}
	})

	for _, anchor := range accomplishmentAnchors {
		section(doc, anchor).Find(listItemSel).Each(func(_ int, li *goquery.Selection) {
			texts := visibleTexts(li)
			if len(texts) == 0 {
				return
			}
			out.Accomplishments = append(out.Accomplishments, profile.Accomplishment{
				Title:       texts[0],
				Description: strings.Join(texts[1:], "\n"),
			})
		})
	}

	if len(out.Experiences) > 0 {
		out.Company = out.Experiences[0].InstitutionName
	}
	return out, nil
}

// ParseExperienceDetails reads the full list from the /details/experience/ page.
func ParseExperienceDetails(html string) ([]profile.Experience, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return parseExperienceItems(topLevelItems(doc)), nil
}

// ParseEducationDetails reads the full list from the /details/education/ page.
func ParseEducationDetails(html string) ([]profile.Education, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return parseEducationItems(topLevelItems(doc)), nil
}

func parseExperienceItems(items *goquery.Selection) []profile.Experience {
	var out []profile.Experience
	items.Each(func(_ int, li *goquery.Selection) {
		texts := visibleTexts(li)
		if len(texts) == 0 {
			return
		}
		exp := profile.Experience{PositionTitle: texts[0]}
		if len(texts) > 1 {
			exp.InstitutionName, exp.Type = splitDot(texts[1])
		}
		if len(texts) > 2 {
			dates, duration := splitDot(texts[2])
			exp.FromDate, exp.ToDate = splitRange(dates)
			exp.Duration = duration
		}
		if len(texts) > 3 {
			exp.Location, _ = splitDot(texts[3])
		}
		if len(texts) > 4 {
			exp.Description = strings.Join(texts[4:], "\n")
		}
		if href, ok := li.Find(`a[href*="/company/"]`).First().Attr("href"); ok {
			exp.LinkedInURL = stripQuery(href)
		}
		out = append(out, exp)
	})
	return out
}

func parseEducationItems(items *goquery.Selection) []profile.Education {
	var out []profile.Education
	items.Each(func(_ int, li *goquery.Selection) {
		texts := visibleTexts(li)
		if len(texts) == 0 {
			return
		}
		edu := profile.Education{InstitutionName: texts[0]}
		if len(texts) > 1 {
			edu.Degree = texts[1]
		}
		if len(texts) > 2 {
			edu.FromDate, edu.ToDate = splitRange(texts[2])
		}
		if len(texts) > 3 {
			edu.Description = strings.Join(texts[3:], "\n")
		}
		if href, ok := li.Find(`a[href*="/school/"], a[href*="/company/"]`).First().Attr("href"); ok {
			edu.LinkedInURL = stripQuery(href)
		}
		out = append(out, edu)
	})
	return out
}

func section(doc *goquery.Document, anchor string) *goquery.Selection {
	return doc.Find("section").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("#"+anchor).Length() > 0
	}).First()
}

func topLevelItems(doc *goquery.Document) *goquery.Selection {
	return doc.Find("main " + listItemSel).FilterFunction(func(_ int, li *goquery.Selection) bool {
		return li.ParentsFiltered(listItemSel).Length() == 0
	})
}

// visibleTexts returns the de-duplicated visible text runs of an item in document order.
func visibleTexts(s *goquery.Selection) []string {
	var out []string
	seen := map[string]struct{}{}
	s.Find(visibleSel).Each(func(_ int, span *goquery.Selection) {
		t := clean(span.Text())
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	})
	return out
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func splitDot(s string) (string, string) {
	left, right, _ := strings.Cut(s, " · ")
	return strings.TrimSpace(left), strings.TrimSpace(right)
}

func splitRange(s string) (string, string) {
	for _, sep := range []string{" - ", " – "} {
		if from, to, ok := strings.Cut(s, sep); ok {
			return strings.TrimSpace(from), strings.TrimSpace(to)
		}
	}
	return strings.TrimSpace(s), ""
}

func stripQuery(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return href
}
