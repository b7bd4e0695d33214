// Package notion provides a minimal Notion API client for the search
// endpoint, with structured logging, request metrics and typed errors.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/revisit-scheduler/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the public Notion API host.
	DefaultBaseURL = "https://api.notion.com"

	// DefaultVersion is the Notion-Version header sent with every request.
	DefaultVersion = "2022-06-28"

	// DefaultPageSize is the search page size. 100 is the API maximum.
	DefaultPageSize = 100

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "revisit-scheduler/0.1.0"

	searchPath = "/v1/search"

	maxErrorBody = 64 << 10
)

// Prometheus metrics for Notion client operations.
var (
	notionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notion_requests_total",
		Help: "Total Notion API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	notionRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notion_request_duration_seconds",
		Help:    "Notion API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	notionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notion_errors_total",
		Help: "Total Notion API errors by class",
	}, []string{"class"})

	notionPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notion_pages_fetched_total",
		Help: "Total page objects received from search",
	})
)

// Config holds the client configuration.
type Config struct {
	// APIKey is the integration token, sent as a bearer credential (REQUIRED).
	APIKey string

	// BaseURL is the API host, without a trailing path.
	BaseURL string

	// Version is sent as the Notion-Version header.
	Version string

	// UserAgent header.
	UserAgent string

	// PageSize is the search page size (1..100).
	PageSize int

	// MaxPages caps the number of search requests. 0 means unlimited.
	MaxPages int

	// Timeout per request. 0 means no timeout.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration for the given token.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		BaseURL:   DefaultBaseURL,
		Version:   DefaultVersion,
		UserAgent: DefaultUserAgent,
		PageSize:  DefaultPageSize,
	}
}

// Client is a Notion search client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	logger     zerolog.Logger
}

// New creates a new Notion client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidPageSize, cfg.PageSize)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		config:     cfg,
		logger:     log.With().Str("component", "notion").Logger(),
	}, nil
}

// Search performs one POST /v1/search request.
func (c *Client) Search(ctx context.Context, sreq SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()
	defer func() {
		notionRequestDuration.WithLabelValues(searchPath).Observe(time.Since(startTime).Seconds())
	}()

	body, err := json.Marshal(sreq)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Notion-Version", c.config.Version)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug().
		Str("endpoint", searchPath).
		Str("cursor", sreq.StartCursor).
		Int("page_size", sreq.PageSize).
		Msg("Executing search request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", searchPath).Msg("HTTP request failed")
		notionErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		notionRequestsTotal.WithLabelValues(searchPath, "network_error").Inc()
		return nil, &APIError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	notionRequestsTotal.WithLabelValues(searchPath, status).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.errorFromResponse(resp)
		notionErrorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()

		c.logger.Error().
			Str("endpoint", searchPath).
			Int("status", resp.StatusCode).
			Str("error_class", string(apiErr.ErrorClass)).
			Str("code", apiErr.Code).
			Msg("Notion request error")

		return nil, apiErr
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		notionErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode search response",
			Err:        err,
		}
	}

	notionPagesFetchedTotal.Add(float64(len(out.Results)))

	return &out, nil
}

// errorFromResponse builds an APIError from a non-2xx response.
func (c *Client) errorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		ErrorClass: classifyStatus(resp.StatusCode),
		Message:    resp.Status,
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Object == "error" {
		apiErr.Code = eb.Code
		if eb.Message != "" {
			apiErr.Message = eb.Message
		}
	}
	return apiErr
}

// FetchPage implements pagination.PageFetcher for page objects.
func (c *Client) FetchPage(ctx context.Context, cursor string) (pagination.Page[Page], error) {
	resp, err := c.Search(ctx, SearchRequest{
		Filter:      PageFilter,
		StartCursor: cursor,
		PageSize:    c.config.PageSize,
	})
	if err != nil {
		return pagination.Page[Page]{}, err
	}

	return pagination.Page[Page]{
		Results:    resp.Results,
		NextCursor: resp.NextCursor,
		HasMore:    resp.HasMore,
	}, nil
}

// FetchAllPages walks search until exhausted and returns every page object.
func (c *Client) FetchAllPages(ctx context.Context) ([]Page, error) {
	paginator := pagination.NewCursor[Page](c, pagination.Config{MaxPages: c.config.MaxPages})

	pages, err := paginator.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("search pages: %w", err)
	}

	c.logger.Info().Int("pages", len(pages)).Msg("Fetched workspace pages")
	return pages, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
