package navigation

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yourusername/mat-rankings/internal/models"
)

// Selectors are the CSS selectors used to read event lists and result pages
type Selectors struct {
	Event       string
	EventName   string
	EventDate   string
	EventLink   string
	Group       string
	WeightClass string
	Match       string
}

// Group is one weight-class block of a result page
type Group struct {
	WeightClass string
	Rows        []string
}

// CleanText collapses runs of whitespace and trims the result
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractEvents reads the event list from a season page.
// Links are resolved against base when it is not nil.
func ExtractEvents(doc *goquery.Document, sel Selectors, base *url.URL) []models.Event {
	var events []models.Event
	doc.Find(sel.Event).Each(func(_ int, s *goquery.Selection) {
		name := CleanText(s.Find(sel.EventName).First().Text())
		if name == "" {
			return
		}
		dateText := CleanText(s.Find(sel.EventDate).First().Text())

		locator := ""
		if href, ok := s.Find(sel.EventLink).First().Attr("href"); ok {
			locator = resolve(base, strings.TrimSpace(href))
		}

		events = append(events, models.Event{
			Index:      len(events),
			Text:       name,
			DateText:   dateText,
			ParsedDate: ParseEventDate(dateText),
			Locator:    locator,
		})
	})
	return events
}

// ExtractGroups reads the result groups of an event page.
// Groups without a weight class heading or without matches are dropped.
func ExtractGroups(doc *goquery.Document, sel Selectors) []Group {
	var groups []Group
	doc.Find(sel.Group).Each(func(_ int, s *goquery.Selection) {
		weightClass := CleanText(s.Find(sel.WeightClass).First().Text())
		if weightClass == "" {
			return
		}

		var rows []string
		s.Find(sel.Match).Each(func(_ int, m *goquery.Selection) {
			if text := CleanText(m.Text()); text != "" {
				rows = append(rows, text)
			}
		})
		if len(rows) == 0 {
			return
		}

		groups = append(groups, Group{WeightClass: weightClass, Rows: rows})
	})
	return groups
}

// GroupRows returns the rows of groups[groupIndex] or ErrNoMoreGroups
func GroupRows(groups []Group, groupIndex int) ([]RawRow, error) {
	if groupIndex < 0 || groupIndex >= len(groups) {
		return nil, ErrNoMoreGroups
	}
	g := groups[groupIndex]
	rows := make([]RawRow, 0, len(g.Rows))
	for _, text := range g.Rows {
		rows = append(rows, RawRow{WeightClass: g.WeightClass, Text: text})
	}
	return rows, nil
}

// EventsURL expands the {season} and {region} placeholders of an events path
func EventsURL(baseURL, eventsPath, seasonKey, regionID string) (string, error) {
	path := strings.NewReplacer(
		"{season}", url.PathEscape(seasonKey),
		"{region}", url.PathEscape(regionID),
	).Replace(eventsPath)

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func resolve(base *url.URL, href string) string {
	if base == nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
