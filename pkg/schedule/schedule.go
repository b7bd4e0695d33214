// Package schedule shuffles revisit items and spreads them over daily files,
// starting tomorrow.
package schedule

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/Sternrassler/revisit-scheduler/pkg/revisit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPerDay is the maximum number of items per daily file.
	DefaultPerDay = 10

	// DefaultOutputDir is where daily files are written.
	DefaultOutputDir = "scheduled_questions"

	// DateLayout names both the batch date and its file.
	DateLayout = "2006-01-02"
)

var (
	scheduleBatchesWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schedule_batches_written_total",
		Help: "Total daily batch files written",
	})

	scheduleItemsScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schedule_items_scheduled_total",
		Help: "Total items assigned to a day",
	})
)

// Batch is the set of items assigned to one day.
type Batch struct {
	Date time.Time

	// Offset is the position of Items[0] in the shuffled sequence.
	Offset int

	Items []revisit.Item
}

// FileName returns the batch's file name, e.g. 2024-06-01.txt.
func (b Batch) FileName() string {
	return b.Date.Format(DateLayout) + ".txt"
}

// Config holds scheduler configuration.
type Config struct {
	// OutputDir receives one file per day. Created if missing.
	OutputDir string

	// PerDay is the maximum number of items per day.
	PerDay int

	// Rand is the shuffle source. nil uses an unseeded process-local source.
	Rand *rand.Rand

	// Now returns the current local time. nil uses time.Now.
	Now func() time.Time
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		OutputDir: DefaultOutputDir,
		PerDay:    DefaultPerDay,
	}
}

// Scheduler assigns items to days and writes the daily files.
type Scheduler struct {
	config Config
	logger zerolog.Logger
}

// New creates a new scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.PerDay < 1 {
		return nil, fmt.Errorf("per_day must be >= 1 (got %d)", cfg.PerDay)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Scheduler{
		config: cfg,
		logger: log.With().Str("component", "schedule").Logger(),
	}, nil
}

// Plan shuffles items and partitions them into batches of at most PerDay
// items dated tomorrow, the day after, and so on. The input is not modified.
// Plan returns nil for no items.
func (s *Scheduler) Plan(items []revisit.Item) []Batch {
	if len(items) == 0 {
		return nil
	}

	shuffled := make([]revisit.Item, len(items))
	copy(shuffled, items)
	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if s.config.Rand != nil {
		s.config.Rand.Shuffle(len(shuffled), swap)
	} else {
		rand.Shuffle(len(shuffled), swap)
	}

	perDay := s.config.PerDay
	numDays := (len(shuffled) + perDay - 1) / perDay
	start := Tomorrow(s.config.Now())

	batches := make([]Batch, 0, numDays)
	for i := 0; i < numDays; i++ {
		lo := i * perDay
		hi := min(lo+perDay, len(shuffled))
		batches = append(batches, Batch{
			Date:   start.AddDate(0, 0, i),
			Offset: lo,
			Items:  shuffled[lo:hi:hi],
		})
	}
	return batches
}

// Schedule plans items and writes one file per batch into OutputDir,
// overwriting files of the same name. With no items it writes nothing.
func (s *Scheduler) Schedule(items []revisit.Item) ([]Batch, error) {
	if len(items) == 0 {
		s.logger.Warn().Msg("No items to schedule")
		return nil, nil
	}

	batches := s.Plan(items)
	if err := s.Write(batches); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("items", len(items)).
		Int("days", len(batches)).
		Str("first_day", batches[0].Date.Format(DateLayout)).
		Str("dir", s.config.OutputDir).
		Msg("Schedule written")

	return batches, nil
}

// Write renders each batch to OutputDir/<date>.txt.
func (s *Scheduler) Write(batches []Batch) error {
	if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, b := range batches {
		path := filepath.Join(s.config.OutputDir, b.FileName())
		if err := writeBatch(path, b); err != nil {
			s.logger.Error().Err(err).Str("file", path).Msg("Write failed")
			return fmt.Errorf("write %s: %w", path, err)
		}

		scheduleBatchesWrittenTotal.Inc()
		scheduleItemsScheduledTotal.Add(float64(len(b.Items)))

		s.logger.Debug().
			Str("file", path).
			Int("items", len(b.Items)).
			Msg("Batch written")
	}
	return nil
}

func writeBatch(path string, b Batch) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return FormatBatch(f, b)
}

// OutputDir returns the configured output directory.
func (s *Scheduler) OutputDir() string {
	return s.config.OutputDir
}

// Tomorrow returns local midnight of the day after now.
func Tomorrow(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
