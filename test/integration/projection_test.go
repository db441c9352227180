//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/eventgov/internal/core"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/driver"
	"github.com/agenthands/eventgov/internal/logger"
)

func TestGraphProjection(t *testing.T) {
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}
	ctx := context.Background()

	d, err := driver.NewMemgraphDriver(ctx, uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"), logger.Nop())
	require.NoError(t, err)
	defer d.Close(ctx)

	p := core.NewProjector(d, logger.Nop())
	require.NoError(t, p.BuildIndices(ctx))

	run := uuid.New().String()[:8]
	school := fmt.Sprintf("测试中学-%s", run)
	visit := fmt.Sprintf("走访-%s", run)
	call := fmt.Sprintf("拜访-%s", run)

	var tags model.Tags
	tags.Set(model.DimensionActionType, model.TagValue{Name: visit, Confidence: 0.9})
	events := []model.Event{{
		ID:         "evt-" + run,
		DocumentID: "doc-" + run,
		RawSpan:    "走访" + school,
		School:     model.EntityName{Raw: school, Canonical: school, Confidence: 0.9},
		Tags:       tags,
		Confidence: 0.9,
		Agreement:  1,
		Status:     model.StatusSilver,
		OccurredOn: time.Now().Format("2006-01-02"),
	}}

	require.NoError(t, p.ProjectEvents(ctx, events))
	require.NoError(t, p.ProjectTags(ctx, []model.TaxonomyTag{
		{ID: "t1-" + run, Dimension: model.DimensionActionType, Name: visit, Status: model.StatusStable},
		{ID: "t2-" + run, Dimension: model.DimensionActionType, Name: call, Status: model.StatusCandidate},
	}))
	require.NoError(t, p.ProjectSuggestions(ctx, []model.MergeSuggestion{
		{Dimension: model.DimensionActionType, Tag: call, Target: visit, Similarity: 0.8, Source: model.SuggestionFromScan},
	}))

	res, err := d.ExecuteQuery(ctx,
		`MATCH (s:School {name: $school})-[:HAS_EVENT]->(e:Event)-[:TAGGED]->(t:Tag) RETURN count(t) AS count`,
		map[string]interface{}{"school": school})
	require.NoError(t, err)
	require.NotEmpty(t, res.Records)
	count, _ := res.Records[0].Get("count")
	assert.EqualValues(t, 1, count)

	res, err = d.ExecuteQuery(ctx,
		`MATCH (:Tag {name: $tag})-[r:SIMILAR_TO]->(:Tag {name: $target}) RETURN r.similarity AS sim`,
		map[string]interface{}{"tag": call, "target": visit})
	require.NoError(t, err)
	require.NotEmpty(t, res.Records)

	// Cleanup
	_, _ = d.ExecuteQuery(ctx,
		`MATCH (n) WHERE n.name IN [$school, $visit, $call] OR n.id = $event DETACH DELETE n`,
		map[string]interface{}{"school": school, "visit": visit, "call": call, "event": "evt-" + run})
}
