package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/revisit-scheduler/pkg/config"
	"github.com/Sternrassler/revisit-scheduler/pkg/logging"
	"github.com/Sternrassler/revisit-scheduler/pkg/metrics"
	"github.com/Sternrassler/revisit-scheduler/pkg/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	configFile  string
	outputDir   string
	perDay      int
	logLevel    string
	metricsFile string
	dryRun      bool
	digest      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "revisit-scheduler",
		Short: "Spread Notion questions marked Revisit over daily files",
		Long: `Fetches every page from the Notion workspace, keeps those whose Action
status is Revisit, shuffles them and writes up to --per-day questions per
file, one file per day starting tomorrow.

The integration token is read from NOTION_KEY (a .env file is honored).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", os.Getenv("CONFIG_PATH"), "Path to a YAML config file")
	f.StringVar(&opts.outputDir, "output-dir", "", "Directory for the daily files (default scheduled_questions)")
	f.IntVar(&opts.perDay, "per-day", 0, "Questions per day (default 10)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Print the planned days instead of writing files")
	f.BoolVar(&opts.digest, "digest", false, "Print all Revisit questions as one list instead of scheduling")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, opts *options, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Schedule.OutputDir = opts.outputDir
	}
	if flags.Changed("per-day") {
		cfg.Schedule.PerDay = opts.perDay
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = opts.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	logging.Setup(logCfg)

	if cfg.MetricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				log.Error().Err(err).Msg("Failed to write metrics")
			}
		}()
	}

	p, err := pipeline.FromConfig(cfg,
		pipeline.WithOutput(stdout),
		pipeline.WithDryRun(opts.dryRun),
		pipeline.WithDigest(opts.digest),
	)
	if err != nil {
		return err
	}

	_, err = p.Run(ctx)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
