package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrPageLimit is returned when Config.MaxPages is exceeded before the
// remote reports exhaustion.
var ErrPageLimit = errors.New("page limit reached")

// Config holds cursor paginator configuration.
type Config struct {
	// MaxPages caps the number of requests. 0 means unlimited.
	MaxPages int
}

// DefaultConfig returns the default configuration: no request cap.
func DefaultConfig() Config {
	return Config{MaxPages: 0}
}

// Page is one response of a cursor-paginated endpoint.
type Page[T any] struct {
	Results    []T
	NextCursor string
	HasMore    bool
}

// PageFetcher is the interface a client must implement for single-page fetching.
// An empty cursor requests the first page.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, cursor string) (Page[T], error)
}

// FetcherFunc adapts a function to PageFetcher.
type FetcherFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// FetchPage calls f.
func (f FetcherFunc[T]) FetchPage(ctx context.Context, cursor string) (Page[T], error) {
	return f(ctx, cursor)
}

// Cursor walks a cursor-paginated endpoint serially.
type Cursor[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewCursor creates a new cursor paginator.
func NewCursor[T any](fetcher PageFetcher[T], config Config) *Cursor[T] {
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}
	return &Cursor[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll requests pages until the remote reports has_more = false and
// returns all results in response order. Any error aborts the walk and no
// partial results are returned.
func (c *Cursor[T]) FetchAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	var (
		all      []T
		cursor   string
		requests int
	)

	for {
		if c.config.MaxPages > 0 && requests >= c.config.MaxPages {
			return nil, fmt.Errorf("%w: %d requests", ErrPageLimit, requests)
		}

		page, err := c.fetcher.FetchPage(ctx, cursor)
		requests++
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", requests, err)
		}

		all = append(all, page.Results...)

		log.Debug().
			Str("component", "pagination").
			Int("request", requests).
			Int("results", len(page.Results)).
			Bool("has_more", page.HasMore).
			Msg("Page fetched")

		if !page.HasMore {
			break
		}

		// A continuation without a cursor would re-request the first page forever.
		if page.NextCursor == "" {
			log.Warn().
				Str("component", "pagination").
				Int("request", requests).
				Msg("has_more set without next_cursor, stopping")
			break
		}
		cursor = page.NextCursor
	}

	log.Info().
		Str("component", "pagination").
		Int("requests", requests).
		Int("results", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return all, nil
}
