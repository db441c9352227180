//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/eventgov/internal/app"
	"github.com/agenthands/eventgov/internal/config"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/logger"
)

const sampleLog = `上午走访XX市第一中学，与教务主任沟通智慧课堂方案，对方表示需校长审批，下周再约。
下午电话沟通实验小学信息老师，对方期末繁忙，建议下学期再议。`

// liveConfig builds a config against the real oracle named by the
// environment, writing to a throwaway store.
func liveConfig(t *testing.T) *config.Config {
	t.Helper()
	_ = godotenv.Load("../../.env")

	if os.Getenv("LLM_API_KEY") == "" && os.Getenv("LLM_PROVIDER") != "ollama" {
		t.Skip("Skipping integration test: LLM_API_KEY not set")
	}

	cfg, err := config.Load("../../config/config.toml")
	require.NoError(t, err)
	cfg.Store.Path = filepath.Join(t.TempDir(), "integration.db")
	cfg.Extraction.BusinessKnowledgePath = "../../config/business_knowledge.md"
	cfg.Governance.SeedPath = "../../config/seed_taxonomy.yaml"
	cfg.Memgraph.URI = ""
	return cfg
}

func TestFullFlow(t *testing.T) {
	cfg := liveConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	docID := fmt.Sprintf("it-%s", uuid.New().String())
	require.NoError(t, a.Store.UpsertDocument(ctx, model.Document{
		ID:      docID,
		Author:  "integration",
		Date:    time.Now().Format("2006-01-02"),
		Content: sampleLog,
	}))

	report, err := a.Engine.ProcessByID(ctx, docID)
	require.NoError(t, err)
	t.Logf("Document report: %+v", report)

	events, err := a.Store.ListEvents(ctx, model.EventFilter{DocumentID: docID})
	require.NoError(t, err)
	require.NotEmpty(t, events, "the oracle should find at least one contact in the sample")
	for _, ev := range events {
		assert.NotEmpty(t, ev.RawSpan)
		assert.True(t, ev.Status.Valid())
		assert.GreaterOrEqual(t, ev.Confidence, 0.0)
		assert.LessOrEqual(t, ev.Confidence, 1.0)
		t.Logf("Event: %s [%s] %s", ev.School.Key(), ev.Status, ev.RawSpan)
	}

	again, err := a.Engine.ProcessByID(ctx, docID)
	require.NoError(t, err)
	t.Logf("Re-run inserted %d, skipped %d", again.Inserted, again.Skipped)

	gov, err := a.Engine.Govern(ctx)
	require.NoError(t, err)
	t.Logf("Governance: %d evaluated, %d promoted", gov.Tags.Evaluated, len(gov.Tags.Promoted))
}
