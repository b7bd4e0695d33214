// Package pipeline runs fetch, filter and schedule in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/revisit-scheduler/pkg/config"
	"github.com/Sternrassler/revisit-scheduler/pkg/logging"
	"github.com/Sternrassler/revisit-scheduler/pkg/notion"
	"github.com/Sternrassler/revisit-scheduler/pkg/revisit"
	"github.com/Sternrassler/revisit-scheduler/pkg/schedule"
	"github.com/rs/zerolog"
)

// PageSource returns every workspace page.
type PageSource interface {
	FetchAllPages(ctx context.Context) ([]notion.Page, error)
}

// Result summarizes a run.
type Result struct {
	Pages   int
	Matched int
	Batches []schedule.Batch

	// DryRun is true when nothing was written: a dry run or a digest.
	DryRun bool
}

// Pipeline wires the page source, the revisit filter and the scheduler.
type Pipeline struct {
	source    PageSource
	schema    revisit.Schema
	scheduler *schedule.Scheduler
	out       io.Writer
	dryRun    bool
	digest    bool
	logger    zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOutput sets where progress lines go (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// WithDryRun prints the planned days to the output instead of writing files.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// WithDigest prints all matched items as one numbered list, in page order,
// instead of scheduling them.
func WithDigest(digest bool) Option {
	return func(p *Pipeline) { p.digest = digest }
}

// New creates a pipeline from its parts.
func New(source PageSource, schema revisit.Schema, scheduler *schedule.Scheduler, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    source,
		schema:    schema.WithDefaults(),
		scheduler: scheduler,
		out:       os.Stdout,
		logger:    logging.NewLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromConfig builds a pipeline against the Notion API. cfg must be valid.
func FromConfig(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	client, err := notion.New(cfg.NotionClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create notion client: %w", err)
	}

	scheduler, err := schedule.New(cfg.SchedulerConfig())
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return New(client, cfg.Schema, scheduler, opts...), nil
}

// Run fetches all pages, keeps those marked for revisit and schedules them.
// Finding nothing to schedule is not an error: Run returns a Result with no
// batches and writes no files.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.progress("Fetching data from Notion...")
	pages, err := p.source.FetchAllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pages: %w", err)
	}

	p.progress("Processing Notion data...")
	items, stats, err := revisit.Project(pages, p.schema)
	result := &Result{Pages: stats.Pages, Matched: stats.Matched, DryRun: p.dryRun}

	p.progress(fmt.Sprintf("Total number of questions: %d", stats.Pages))
	p.progress(fmt.Sprintf("Number of %q questions: %d", p.schema.Sentinel, stats.Matched))

	if errors.Is(err, revisit.ErrNoItems) {
		p.logger.Warn().Int("pages", stats.Pages).Msg("Nothing to schedule")
		p.progress("Nothing to schedule.")
		return result, nil
	}

	if p.digest {
		result.DryRun = true
		if err := schedule.FormatDigest(p.out, items); err != nil {
			return nil, fmt.Errorf("print digest: %w", err)
		}
		return result, nil
	}

	if p.dryRun {
		result.Batches = p.scheduler.Plan(items)
		if err := p.printPlan(result.Batches); err != nil {
			return nil, fmt.Errorf("print plan: %w", err)
		}
		return result, nil
	}

	p.progress("Assigning questions per day...")
	result.Batches, err = p.scheduler.Schedule(items)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	p.progress(fmt.Sprintf("Task completed! Check the '%s' directory for the output files.", p.scheduler.OutputDir()))
	return result, nil
}

func (p *Pipeline) printPlan(batches []schedule.Batch) error {
	for _, b := range batches {
		if _, err := fmt.Fprintf(p.out, "== %s (%d) ==\n", b.FileName(), len(b.Items)); err != nil {
			return err
		}
		if err := schedule.FormatBatch(p.out, b); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) progress(line string) {
	fmt.Fprintln(p.out, line)
}
