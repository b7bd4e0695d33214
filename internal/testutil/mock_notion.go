// Package testutil provides testing utilities for the revisit scheduler.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// MockToken is the bearer token MockNotion accepts by default.
const MockToken = "secret_test_token"

// MockResponse defines a fixed response for a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// SearchBody is the decoded body of a search request.
type SearchBody struct {
	PageSize    int               `json:"page_size"`
	StartCursor string            `json:"start_cursor"`
	Filter      map[string]string `json:"filter"`
}

// MockNotion is a configurable mock of the Notion search endpoint. It serves
// its pages in order, page_size at a time, with cursors of the form "cursor-<offset>".
type MockNotion struct {
	server   *httptest.Server
	mu       sync.RWMutex
	pages    []map[string]any
	token    string
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	Requests          []SearchBody
}

// NewMockNotion creates a new mock Notion server serving pages.
func NewMockNotion(pages ...map[string]any) *MockNotion {
	mock := &MockNotion{
		pages:    pages,
		token:    MockToken,
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		if r.URL.Path != "/v1/search" || r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "object_not_found", "no such endpoint")
			return
		}
		mock.searchHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockNotion) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockNotion) Close() {
	m.server.Close()
}

// SetPages replaces the served pages.
func (m *MockNotion) SetPages(pages ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = pages
}

// SetHandler sets a custom handler for a specific path.
func (m *MockNotion) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockNotion) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockNotion) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetRequests returns the decoded search bodies received so far.
func (m *MockNotion) GetRequests() []SearchBody {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SearchBody(nil), m.Requests...)
}

func (m *MockNotion) searchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+m.token {
		writeError(w, http.StatusUnauthorized, "unauthorized", "API token is invalid.")
		return
	}
	if r.Header.Get("Notion-Version") == "" {
		writeError(w, http.StatusBadRequest, "missing_version", "Notion-Version header failed validation.")
		return
	}

	var body SearchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	m.mu.Lock()
	m.Requests = append(m.Requests, body)
	pages := m.pages
	m.mu.Unlock()

	offset := 0
	if body.StartCursor != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(body.StartCursor, "cursor-"))
		if err != nil || n < 0 || n > len(pages) {
			writeError(w, http.StatusBadRequest, "validation_error", "start_cursor is invalid")
			return
		}
		offset = n
	}

	size := body.PageSize
	if size <= 0 || size > 100 {
		size = 100
	}

	end := offset + size
	if end > len(pages) {
		end = len(pages)
	}

	resp := map[string]any{
		"object":      "list",
		"results":     pages[offset:end],
		"next_cursor": nil,
		"has_more":    end < len(pages),
		"type":        "page_or_database",
	}
	if end < len(pages) {
		resp["next_cursor"] = fmt.Sprintf("cursor-%d", end)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"object":  "error",
		"status":  status,
		"code":    code,
		"message": message,
	})
}

// PageSpec describes a page for NewPage. Empty fields omit the property.
type PageSpec struct {
	ID     string
	URL    string
	Status string
	Date   string
	Title  string
}

// NewPage builds a page object shaped like a Notion search result, with
// Action (status), Date (date) and Problem (title) properties.
func NewPage(ps PageSpec) map[string]any {
	props := map[string]any{}

	if ps.Status != "" {
		props["Action"] = map[string]any{
			"id":     "act",
			"type":   "status",
			"status": map[string]any{"id": "s1", "name": ps.Status, "color": "red"},
		}
	}
	if ps.Date != "" {
		props["Date"] = map[string]any{
			"id":   "dt",
			"type": "date",
			"date": map[string]any{"start": ps.Date, "end": nil, "time_zone": nil},
		}
	}
	if ps.Title != "" {
		props["Problem"] = map[string]any{
			"id":   "title",
			"type": "title",
			"title": []any{map[string]any{
				"type":       "text",
				"text":       map[string]any{"content": ps.Title, "link": nil},
				"plain_text": ps.Title,
				"href":       nil,
			}},
		}
	}

	id := ps.ID
	if id == "" {
		id = strings.TrimPrefix(ps.URL, "https://www.notion.so/")
	}

	return map[string]any{
		"object":           "page",
		"id":               id,
		"url":              ps.URL,
		"created_time":     "2024-05-01T10:00:00.000Z",
		"last_edited_time": "2024-05-02T10:00:00.000Z",
		"properties":       props,
	}
}

// NewPages builds n pages alternating between Revisit and Done statuses,
// starting with Revisit.
func NewPages(n int) []map[string]any {
	pages := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		status := "Revisit"
		if i%2 == 1 {
			status = "Done"
		}
		pages = append(pages, NewPage(PageSpec{
			URL:    fmt.Sprintf("https://www.notion.so/page-%d", i),
			Status: status,
			Date:   "2024-05-01",
			Title:  fmt.Sprintf("Problem %d", i),
		}))
	}
	return pages
}
