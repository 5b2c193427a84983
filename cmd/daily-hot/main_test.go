package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/logging"
	"github.com/ryosukesatoh/daily-hot/internal/runner"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Translator.APIKey = "test-key"
	return cfg
}

func TestBuildRunnerWiresEnabledSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.ProductHunt.Enabled = false
	cfg.Site.Enabled = false

	r, cleanup, err := buildRunner(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, r.GitHub)
	assert.Nil(t, r.ProductHunt, "disabled source must stay a nil interface")
	assert.NotNil(t, r.HackerNews)
	assert.NotNil(t, r.Translator)
	assert.Nil(t, r.Site)
	assert.Equal(t, "any", r.Language)
	assert.Equal(t, "daily", r.Since)
	require.Len(t, r.Publishers, 1)
	assert.Equal(t, "markdown", r.Publishers[0].Name())
}

func TestBuildRunnerWithSite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publisher.Types = []string{"markdown", "stdout"}

	r, cleanup, err := buildRunner(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, r.Site)
	assert.Len(t, r.Publishers, 2)
}

func TestBuildRunnerUnknownTranslator(t *testing.T) {
	cfg := testConfig(t)
	cfg.Translator.Type = "carrier-pigeon"

	_, _, err := buildRunner(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}

type countingPipeline struct {
	calls atomic.Int32
	err   error
}

func (p *countingPipeline) Run(context.Context, runner.Options) error {
	p.calls.Add(1)
	return p.err
}

func TestScheduleRunsOnStart(t *testing.T) {
	cfg := testConfig(t)
	p := &countingPipeline{err: errors.New("boom")}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, schedule(ctx, cfg, p, logging.Discard()))
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestScheduleWithoutRunOnStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.RunOnStart = false
	p := &countingPipeline{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, schedule(ctx, cfg, p, logging.Discard()))
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestSetupSkipsValidationForSiteCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: ./docs\n"), 0o644))
	t.Setenv("DEEPSEEK_API_KEY", "")

	old := cfgFile
	cfgFile = path
	defer func() { cfgFile = old }()

	cfg, _, closeLog, err := setup(false)
	require.NoError(t, err)
	defer closeLog()
	assert.Equal(t, "./docs", cfg.OutputDir)

	_, _, _, err = setup(true)
	assert.Error(t, err)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{{"run"}, {"schedule"}, {"site", "build"}, {"site", "serve"}, {"site", "deploy"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	for _, flag := range []string{"language", "since", "no-site"} {
		assert.NotNil(t, run.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, root.PersistentFlags().ShorthandLookup("c"))
	assert.NotNil(t, root.PersistentFlags().ShorthandLookup("v"))
}
