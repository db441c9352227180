package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/eventgov/internal/config"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "app.db")
	cfg.Extraction.BusinessKnowledgePath = filepath.Join(dir, "missing.md")
	cfg.LLM.APIKey = ""
	return cfg
}

func TestNew_DisabledOracle(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	stable, err := a.Store.ListTags(context.Background(), model.TagFilter{Status: model.StatusStable})
	require.NoError(t, err)
	assert.Len(t, stable, 13)

	require.NoError(t, a.Store.UpsertDocument(context.Background(), model.Document{ID: "d1", Date: "2025-06-09", Content: "走访"}))
	report, err := a.Engine.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Zero(t, report.Events)
}

func TestNew_SeedFile(t *testing.T) {
	cfg := testConfig(t)
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("tags:\n  - dimension: outcome\n    name: 成交\n"), 0o644))
	cfg.Governance.SeedPath = seed

	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	tags, err := a.Store.ListTags(context.Background(), model.TagFilter{})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "成交", tags[0].Name)
}

func TestRetryPolicyAndLimiter(t *testing.T) {
	p := retryPolicy(config.RetryConfig{MaxAttempts: 3, DelayMS: 2000, Multiplier: 1, TimeoutSeconds: 90})
	assert.Equal(t, 2*time.Second, p.Delay)
	assert.Equal(t, 90*time.Second, p.Timeout)

	assert.Nil(t, limiter(0))
	assert.NotNil(t, limiter(30))
}
