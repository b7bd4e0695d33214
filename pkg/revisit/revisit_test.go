package revisit

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Sternrassler/revisit-scheduler/internal/testutil"
	"github.com/Sternrassler/revisit-scheduler/pkg/notion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodePages round-trips mock page objects through JSON, the way the client receives them.
func decodePages(t *testing.T, raw ...map[string]any) []notion.Page {
	t.Helper()

	data, err := json.Marshal(raw)
	require.NoError(t, err)

	var pages []notion.Page
	require.NoError(t, json.Unmarshal(data, &pages))
	return pages
}

func decodeJSON(t *testing.T, js string) []notion.Page {
	t.Helper()

	var pages []notion.Page
	require.NoError(t, json.Unmarshal([]byte(js), &pages))
	return pages
}

func TestProject_OpenExcludedRevisitIncluded(t *testing.T) {
	pages := decodePages(t,
		testutil.NewPage(testutil.PageSpec{URL: "https://n.so/open", Status: "Open", Date: "2024-05-01", Title: "Open one"}),
		testutil.NewPage(testutil.PageSpec{URL: "https://n.so/revisit", Status: "Revisit", Title: "Revisit one"}),
	)

	items, stats, err := Project(pages, DefaultSchema())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, Item{Date: "", Title: "Revisit one", URL: "https://n.so/revisit"}, items[0])
	assert.Equal(t, Stats{Pages: 2, Matched: 1}, stats)
}

func TestProject_ExtractsAllFields(t *testing.T) {
	pages := decodePages(t,
		testutil.NewPage(testutil.PageSpec{URL: "https://n.so/a", Status: "Revisit", Date: "2024-05-01", Title: "Two Sum"}),
		testutil.NewPage(testutil.PageSpec{URL: "https://n.so/b", Status: "Revisit", Date: "2024-05-03T09:30:00.000+02:00", Title: "LRU Cache"}),
	)

	items, _, err := Project(pages, DefaultSchema())
	require.NoError(t, err)

	assert.Equal(t, []Item{
		{Date: "2024-05-01", Title: "Two Sum", URL: "https://n.so/a"},
		{Date: "2024-05-03T09:30:00.000+02:00", Title: "LRU Cache", URL: "https://n.so/b"},
	}, items)
}

func TestProject_Empty(t *testing.T) {
	tests := []struct {
		name  string
		pages []notion.Page
	}{
		{name: "nil input", pages: nil},
		{name: "no matches", pages: decodePages(t,
			testutil.NewPage(testutil.PageSpec{URL: "a", Status: "Done"}),
			testutil.NewPage(testutil.PageSpec{URL: "b"}),
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, stats, err := Project(tt.pages, DefaultSchema())

			assert.True(t, errors.Is(err, ErrNoItems))
			assert.NotNil(t, items)
			assert.Empty(t, items)
			assert.Equal(t, len(tt.pages), stats.Pages)
			assert.Zero(t, stats.Matched)
		})
	}
}

func TestProject_ToleratesMissingPaths(t *testing.T) {
	pages := decodeJSON(t, `[
		{"url": "p0"},
		{"url": "p1", "properties": null},
		{"url": "p2", "properties": {}},
		{"url": "p3", "properties": {"Action": {}}},
		{"url": "p4", "properties": {"Action": {"status": null}}},
		{"url": "p5", "properties": {"Action": {"status": {}}}},
		{"url": "p6", "properties": {"Action": {"status": "Revisit"}}},
		{"url": "p7", "properties": {"Action": {"select": {"name": "Revisit"}}}},
		{"url": "p8", "properties": {"Action": {"status": {"name": "Revisit"}}}},
		{"url": "p9", "properties": {"Action": {"status": {"name": "Revisit"}}, "Date": {"date": null}, "Problem": {"title": []}}},
		{"url": "p10", "properties": {"Action": {"status": {"name": "Revisit"}}, "Date": {"date": "tomorrow"}, "Problem": {"title": [{"plain_text": "x"}]}}},
		{"url": "p11", "properties": {"Action": {"status": {"name": "revisit"}}}}
	]`)

	var items []Item
	var err error
	require.NotPanics(t, func() {
		items, _, err = Project(pages, DefaultSchema())
	})
	require.NoError(t, err)

	assert.Equal(t, []Item{
		{URL: "p8"},
		{URL: "p9"},
		{URL: "p10"},
	}, items)
}

func TestProject_OutputIsSubsetOfMatches(t *testing.T) {
	statuses := []string{"Revisit", "Open", "Done", "", "Revisit", "Revisit "}
	var raw []map[string]any
	for i := 0; i < 60; i++ {
		raw = append(raw, testutil.NewPage(testutil.PageSpec{
			URL:    fmt.Sprintf("https://n.so/%d", i),
			Status: statuses[i%len(statuses)],
			Title:  fmt.Sprintf("t%d", i),
		}))
	}
	pages := decodePages(t, raw...)

	bySource := make(map[string]notion.Page, len(pages))
	for _, p := range pages {
		bySource[p.URL] = p
	}

	items, _, err := Project(pages, DefaultSchema())
	require.NoError(t, err)

	assert.LessOrEqual(t, len(items), len(pages))
	assert.Len(t, items, 20)
	for _, item := range items {
		src, ok := bySource[item.URL]
		require.True(t, ok, "item %q has no source page", item.URL)
		assert.Equal(t, "Revisit", src.Property("Action").StatusName())
	}
}

func TestProject_CustomSchema(t *testing.T) {
	pages := decodeJSON(t, `[
		{"url": "a", "properties": {
			"State": {"status": {"name": "Again"}},
			"Solved": {"date": {"start": "2024-01-02"}},
			"Name": {"title": [{"text": {"content": "Graph"}}]}
		}},
		{"url": "b", "properties": {"Action": {"status": {"name": "Revisit"}}}}
	]`)

	schema := Schema{StatusProperty: "State", Sentinel: "Again", DateProperty: "Solved", TitleProperty: "Name"}
	items, _, err := Project(pages, schema)
	require.NoError(t, err)

	assert.Equal(t, []Item{{Date: "2024-01-02", Title: "Graph", URL: "a"}}, items)
}

func TestSchema_PartialUsesDefaults(t *testing.T) {
	pages := decodePages(t, testutil.NewPage(testutil.PageSpec{URL: "a", Status: "Revisit", Title: "T"}))

	s := Schema{TitleProperty: "Problem"}
	assert.True(t, s.Matches(pages[0]))
	assert.Equal(t, "T", s.Extract(pages[0]).Title)
}
