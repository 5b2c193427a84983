// Package site drives the static site generator over the Markdown output
// directory and offers a built-in preview server for when the generator is
// not installed.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ryosukesatoh/daily-hot/internal/config"
)

var (
	ErrToolMissing   = errors.New("site: generator not installed")
	ErrConfigMissing = errors.New("site: generator config not found")
	ErrDocsMissing   = errors.New("site: docs directory not found")
	ErrNotRepository = errors.New("site: not a git repository")
)

// Command is one invocation of the generator.
type Command struct {
	Dir    string
	Name   string
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// RunFunc executes a command and reports a non-zero exit as an error.
type RunFunc func(ctx context.Context, c Command) error

// Exec runs the command as a subprocess.
func Exec(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd.Run()
}

type Builder struct {
	binary     string
	configFile string
	docsDir    string
	siteDir    string
	workDir    string
	run        RunFunc
	out        io.Writer
	logger     *slog.Logger
}

type Option func(*Builder)

// WithRunner replaces subprocess execution.
func WithRunner(run RunFunc) Option {
	return func(b *Builder) { b.run = run }
}

// WithWorkDir sets the directory the generator runs in. Relative paths in
// the configuration resolve against it.
func WithWorkDir(dir string) Option {
	return func(b *Builder) { b.workDir = dir }
}

// WithOutput sets where Serve streams the generator's output.
func WithOutput(w io.Writer) Option {
	return func(b *Builder) { b.out = w }
}

func NewBuilder(cfg config.SiteConfig, docsDir string, logger *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		binary:     cfg.Binary,
		configFile: cfg.ConfigFile,
		docsDir:    docsDir,
		siteDir:    cfg.SiteDir,
		workDir:    ".",
		run:        Exec,
		out:        os.Stderr,
		logger:     logger.With("component", "site"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.workDir, p)
}

// exec runs the generator with captured output. The captured stderr is
// attached to the error on failure.
func (b *Builder) exec(ctx context.Context, args ...string) error {
	var stdout, stderr bytes.Buffer
	c := Command{Dir: b.workDir, Name: b.binary, Args: args, Stdout: &stdout, Stderr: &stderr}
	b.logger.Info("Running command", "cmd", c.String())
	if err := b.run(ctx, c); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("site: %s: %w", c, err)
		}
		return fmt.Errorf("site: %s: %w: %s", c, err, msg)
	}
	return nil
}

// check verifies the generator, its config and the docs directory are present.
func (b *Builder) check(ctx context.Context) error {
	if err := b.exec(ctx, "--version"); err != nil {
		return fmt.Errorf("%w (%s): %v", ErrToolMissing, b.binary, err)
	}
	if _, err := os.Stat(b.path(b.configFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrConfigMissing, b.configFile)
	}
	if info, err := os.Stat(b.path(b.docsDir)); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDocsMissing, b.docsDir)
	}
	return nil
}

// Build renders the site with a clean output directory.
func (b *Builder) Build(ctx context.Context) error {
	if err := b.check(ctx); err != nil {
		return err
	}
	if err := b.exec(ctx, "build", "--clean"); err != nil {
		return err
	}
	abs, _ := filepath.Abs(b.path(b.siteDir))
	b.logger.Info("Site built", "site_dir", abs)
	return nil
}

// Serve runs the generator's development server until ctx is cancelled.
func (b *Builder) Serve(ctx context.Context, host string, port int) error {
	if err := b.check(ctx); err != nil {
		return err
	}
	addr := host + ":" + strconv.Itoa(port)
	c := Command{Dir: b.workDir, Name: b.binary, Args: []string{"serve", "--dev-addr", addr}, Stdout: b.out, Stderr: b.out}
	b.logger.Info("Starting development server", "url", "http://"+addr)

	err := b.run(ctx, c)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("site: %s: %w", c, err)
	}
	return nil
}

// Deploy builds the site and publishes it to GitHub Pages.
func (b *Builder) Deploy(ctx context.Context) error {
	if _, err := os.Stat(b.path(".git")); err != nil {
		return ErrNotRepository
	}
	if err := b.Build(ctx); err != nil {
		return err
	}
	if err := b.exec(ctx, "gh-deploy", "--force"); err != nil {
		return err
	}
	b.logger.Info("Site deployed to GitHub Pages")
	return nil
}
