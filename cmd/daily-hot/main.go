package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/logging"
	"github.com/ryosukesatoh/daily-hot/internal/runner"
)

var (
	cfgFile string
	verbose bool

	runLanguage string
	runSince    string
	runNoSite   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "daily-hot",
		Short: "Daily digest of GitHub Trending, Product Hunt and Hacker News",
		Long: `daily-hot scrapes the GitHub Trending page, Product Hunt and the Hacker News
front page, translates descriptions and summarizes stories into Chinese with a
language model, and writes Markdown pages for a static site generator.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(siteCmd())
	return rootCmd
}

// setup loads the config with or without validation and builds the logger.
func setup(validate bool) (*config.Config, *slog.Logger, func() error, error) {
	load := config.Read
	if validate {
		load = config.Load
	}
	cfg, err := load(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closeLog, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup(true)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := signalContext()
			defer cancel()

			r, cleanup, err := buildRunner(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return r.Run(ctx, runner.Options{Language: runLanguage, Since: runSince, NoSite: runNoSite})
		},
	}

	cmd.Flags().StringVar(&runLanguage, "language", "", "GitHub Trending language filter, e.g. go or python")
	cmd.Flags().StringVar(&runSince, "since", "", "GitHub Trending window: daily, weekly or monthly")
	cmd.Flags().BoolVar(&runNoSite, "no-site", false, "skip the site build after publishing")
	return cmd
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline every day at the configured time",
		Long: `Run the pipeline once immediately (unless run_on_start is false), then every
day at the HH:MM configured as schedule, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup(true)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := signalContext()
			defer cancel()

			r, cleanup, err := buildRunner(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return schedule(ctx, cfg, r, logger)
		},
	}
}

type pipeline interface {
	Run(ctx context.Context, opts runner.Options) error
}

// schedule blocks until ctx is done.
func schedule(ctx context.Context, cfg *config.Config, p pipeline, logger *slog.Logger) error {
	run := func(trigger string) {
		logger.Info("Running pipeline", "trigger", trigger)
		if err := p.Run(ctx, runner.Options{}); err != nil {
			logger.Error("Pipeline failed", "trigger", trigger, "error", err)
		}
	}

	if cfg.RunOnStart {
		run("startup")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := cfg.CronSpec()
	if _, err := c.AddFunc(spec, func() { run("cron") }); err != nil {
		return fmt.Errorf("failed to set up cron schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Info("Scheduler started", "schedule", cfg.Schedule, "cron", spec)

	<-ctx.Done()
	logger.Info("Shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("Shutdown complete")
	return nil
}
