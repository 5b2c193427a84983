package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/site"
)

var (
	serveHost    string
	servePort    int
	serveBuiltin bool
)

func siteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Build, preview or deploy the generated site",
	}
	cmd.AddCommand(siteBuildCmd())
	cmd.AddCommand(siteServeCmd())
	cmd.AddCommand(siteDeployCmd())
	return cmd
}

// siteAction loads the config without validation, since site commands do not
// need model credentials.
func siteAction(fn func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup(false)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, cancel := signalContext()
		defer cancel()
		return fn(ctx, cfg, logger)
	}
}

func siteBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the static site from the Markdown output",
		Args:  cobra.NoArgs,
		RunE: siteAction(func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
			return site.NewBuilder(cfg.Site, cfg.OutputDir, logger).Build(ctx)
		}),
	}
}

func siteDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Build the site and push it to GitHub Pages",
		Args:  cobra.NoArgs,
		RunE: siteAction(func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
			return site.NewBuilder(cfg.Site, cfg.OutputDir, logger).Deploy(ctx)
		}),
	}
}

func siteServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site locally until interrupted",
		Args:  cobra.NoArgs,
		RunE: siteAction(func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
			host, port := cfg.Site.Host, cfg.Site.Port
			if serveHost != "" {
				host = serveHost
			}
			if servePort != 0 {
				port = servePort
			}
			if serveBuiltin {
				return servePreview(ctx, net.JoinHostPort(host, strconv.Itoa(port)), cfg.OutputDir, logger)
			}
			return site.NewBuilder(cfg.Site, cfg.OutputDir, logger).Serve(ctx, host, port)
		}),
	}

	cmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	cmd.Flags().BoolVar(&serveBuiltin, "builtin", false, "use the built-in Markdown preview instead of the site generator")
	return cmd
}

func servePreview(ctx context.Context, addr, docsDir string, logger *slog.Logger) error {
	ps := site.NewPreviewServer(addr, docsDir, logger)
	if err := ps.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ps.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("preview server shutdown: %w", err)
	}
	return nil
}
