// Package revisit selects the workspace pages marked for revisiting and
// projects them into schedule items.
package revisit

import (
	"errors"

	"github.com/Sternrassler/revisit-scheduler/pkg/notion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// ErrNoItems is returned by Project when no page matches the filter,
// including when there are no pages at all.
var ErrNoItems = errors.New("no pages marked for revisit")

var (
	revisitPagesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "revisit_pages_scanned_total",
		Help: "Total pages checked against the revisit filter",
	})

	revisitItemsMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "revisit_items_matched_total",
		Help: "Total pages that matched the revisit filter",
	})

	revisitDegradedFieldsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "revisit_degraded_fields_total",
		Help: "Fields of matched pages that fell back to an empty value",
	}, []string{"field"})
)

// Item is one question to revisit.
type Item struct {
	// Date is the raw date.start value, empty when absent.
	Date  string
	Title string
	URL   string
}

// Schema names the workspace properties the filter and extractor read.
type Schema struct {
	// StatusProperty is the status property checked against Sentinel.
	StatusProperty string `yaml:"status_property"`

	// Sentinel is the status name that marks a page for revisiting.
	Sentinel string `yaml:"sentinel"`

	// DateProperty is the date property copied into Item.Date.
	DateProperty string `yaml:"date_property"`

	// TitleProperty is the title property copied into Item.Title.
	TitleProperty string `yaml:"title_property"`
}

// DefaultSchema returns the property names of the problem tracker database.
func DefaultSchema() Schema {
	return Schema{
		StatusProperty: "Action",
		Sentinel:       "Revisit",
		DateProperty:   "Date",
		TitleProperty:  "Problem",
	}
}

// WithDefaults fills empty fields from DefaultSchema.
func (s Schema) WithDefaults() Schema {
	d := DefaultSchema()
	if s.StatusProperty == "" {
		s.StatusProperty = d.StatusProperty
	}
	if s.Sentinel == "" {
		s.Sentinel = d.Sentinel
	}
	if s.DateProperty == "" {
		s.DateProperty = d.DateProperty
	}
	if s.TitleProperty == "" {
		s.TitleProperty = d.TitleProperty
	}
	return s
}

// Matches reports whether page's status property equals the sentinel.
// Any missing level counts as no match.
func (s Schema) Matches(page notion.Page) bool {
	s = s.WithDefaults()
	return page.Property(s.StatusProperty).StatusName() == s.Sentinel
}

// Extract projects page into an Item. Missing fields become empty strings.
func (s Schema) Extract(page notion.Page) Item {
	s = s.WithDefaults()

	item := Item{
		Date:  page.Property(s.DateProperty).DateStart(),
		Title: page.Property(s.TitleProperty).FirstTitleText(),
		URL:   page.URL,
	}

	if item.Date == "" {
		degraded(page, "date", s.DateProperty)
	}
	if item.Title == "" {
		degraded(page, "title", s.TitleProperty)
	}
	if item.URL == "" {
		degraded(page, "url", "url")
	}

	return item
}

func degraded(page notion.Page, field, property string) {
	revisitDegradedFieldsTotal.WithLabelValues(field).Inc()

	ev := log.Debug().
		Str("component", "revisit").
		Str("page_id", page.ID).
		Str("field", field).
		Str("property", property)
	if malformed := page.Property(property).Malformed; len(malformed) > 0 {
		ev = ev.Strs("malformed", malformed)
	}
	ev.Msg("Field missing, using empty value")
}

// Stats counts what Project saw.
type Stats struct {
	Pages   int
	Matched int
}

// Project filters pages with schema and extracts an Item from each match,
// preserving page order. It returns ErrNoItems, together with an empty
// slice, when nothing matches.
func Project(pages []notion.Page, schema Schema) ([]Item, Stats, error) {
	schema = schema.WithDefaults()
	stats := Stats{Pages: len(pages)}

	items := make([]Item, 0)
	for _, page := range pages {
		if !schema.Matches(page) {
			continue
		}
		items = append(items, schema.Extract(page))
	}
	stats.Matched = len(items)

	revisitPagesScannedTotal.Add(float64(stats.Pages))
	revisitItemsMatchedTotal.Add(float64(stats.Matched))

	log.Info().
		Str("component", "revisit").
		Int("pages", stats.Pages).
		Int("matched", stats.Matched).
		Str("sentinel", schema.Sentinel).
		Msg("Filtered pages")

	if len(items) == 0 {
		return items, stats, ErrNoItems
	}
	return items, stats, nil
}
