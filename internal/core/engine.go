package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agenthands/eventgov/internal/core/alias"
	"github.com/agenthands/eventgov/internal/core/community"
	"github.com/agenthands/eventgov/internal/core/extraction"
	"github.com/agenthands/eventgov/internal/core/merge"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/summary"
	"github.com/agenthands/eventgov/internal/core/taxonomy"
	"github.com/agenthands/eventgov/internal/logger"
	"github.com/agenthands/eventgov/internal/store"
)

// ErrBatchRunning is returned when a batch or governance run is requested
// while another one holds the engine.
var ErrBatchRunning = errors.New("a batch is already running")

// EventStore is what the engine reads and writes directly. Governance
// components take their own narrower views of the same store.
type EventStore interface {
	SeedTags(ctx context.Context, tags []model.TaxonomyTag) (int, error)
	PendingDocuments(ctx context.Context, limit int) ([]model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListTags(ctx context.Context, filter model.TagFilter) ([]model.TaxonomyTag, error)
	ListAliases(ctx context.Context, filter model.AliasFilter) ([]model.EntityAlias, error)
	ListSuggestions(ctx context.Context) ([]model.MergeSuggestion, error)
	PersistDocument(ctx context.Context, events []model.Event) (*store.PersistResult, error)
	TagExamples(ctx context.Context, d model.Dimension, name string, limit int) ([]string, error)
	SetTagDefinition(ctx context.Context, id, definition string) error
}

// Engine runs the extraction pipeline and the governance passes. Writes are
// serialized: one batch or governance run at a time, one document at a
// time, so each document's prompt sees the taxonomy left by the previous one.
type Engine struct {
	Store     EventStore
	Extractor *extraction.Extractor
	Merger    *merge.Merger
	Taxonomy  *taxonomy.Engine
	Aliases   *alias.Governor
	Clusterer community.Detector

	// Summarizer drafts definitions for promoted tags when set.
	Summarizer *summary.Summarizer
	// Projector mirrors results into a graph database when set.
	Projector *Projector

	mu  sync.Mutex
	log *logger.Logger
}

func NewEngine(s EventStore, ex *extraction.Extractor, m *merge.Merger, tax *taxonomy.Engine, al *alias.Governor, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		Store:     s,
		Extractor: ex,
		Merger:    m,
		Taxonomy:  tax,
		Aliases:   al,
		Clusterer: community.NewLabelPropagation(),
		log:       log,
	}
}

// Seed inserts the seed vocabulary; existing tags are left alone.
func (e *Engine) Seed(ctx context.Context, seeds []model.TaxonomyTag) error {
	n, err := e.Store.SeedTags(ctx, seeds)
	if err != nil {
		return fmt.Errorf("failed to seed taxonomy: %w", err)
	}
	if n > 0 {
		e.log.Info("Seeded taxonomy", "tags", n)
	}
	return nil
}

// DocumentReport is the outcome of processing one document.
type DocumentReport struct {
	DocumentID  string  `json:"doc_id"`
	DualRun     bool    `json:"dual_run"`
	Consistency float64 `json:"consistency"`
	Inserted    int     `json:"inserted"`
	Skipped     int     `json:"skipped"`
	Silver      int     `json:"silver"`
	Gray        int     `json:"gray"`
	Pending     int     `json:"pending"`
	RunAError   string  `json:"run_a_error,omitempty"`
	RunBError   string  `json:"run_b_error,omitempty"`
}

// ProcessDocument runs one document through both oracle variants,
// reconciles, and persists the result.
func (e *Engine) ProcessDocument(ctx context.Context, doc model.Document) (*DocumentReport, error) {
	if !e.mu.TryLock() {
		return nil, ErrBatchRunning
	}
	defer e.mu.Unlock()
	return e.processDocument(ctx, doc)
}

func (e *Engine) processDocument(ctx context.Context, doc model.Document) (*DocumentReport, error) {
	log := e.log.With("doc_id", doc.ID)
	report := &DocumentReport{DocumentID: doc.ID}

	stable, err := e.Store.ListTags(ctx, model.TagFilter{Status: model.StatusStable})
	if err != nil {
		return nil, fmt.Errorf("failed to load stable taxonomy: %w", err)
	}

	// B does not depend on A; they run back to back so the document is
	// finished before the next one reads the taxonomy.
	ra := e.Extractor.Extract(ctx, doc, stable, extraction.VariantA)
	rb := e.Extractor.Extract(ctx, doc, stable, extraction.VariantB)
	if ra.Err != nil {
		report.RunAError = ra.Err.Error()
	}
	if rb.Err != nil {
		report.RunBError = rb.Err.Error()
	}

	plan, err := e.Merger.Build(doc, toRun(ra), toRun(rb))
	if err != nil {
		return report, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	report.DualRun = plan.DualRun
	report.Consistency = plan.Consistency

	res, err := e.Store.PersistDocument(ctx, plan.Events)
	if err != nil {
		return report, fmt.Errorf("failed to persist document %s: %w", doc.ID, err)
	}
	report.Inserted = len(res.Inserted)
	report.Skipped = res.Skipped
	for _, ev := range res.Inserted {
		switch ev.Status {
		case model.StatusSilver:
			report.Silver++
		case model.StatusGray:
			report.Gray++
		case model.StatusPending:
			report.Pending++
		}
	}

	log.Info("Document processed",
		"dual_run", plan.DualRun, "consistency", plan.Consistency,
		"events", report.Inserted, "skipped", report.Skipped,
		"silver", report.Silver, "new_tags", len(res.NewTags))

	if e.Projector != nil && len(res.Inserted) > 0 {
		if err := e.Projector.ProjectEvents(ctx, res.Inserted); err != nil {
			log.Warn("Graph projection failed", "error", err)
		}
	}
	return report, nil
}

func toRun(r extraction.Result) merge.Run {
	return merge.Run{OK: r.OK(), Extractions: r.Extractions, Raw: r.Raw}
}

// BatchReport totals one batch run.
type BatchReport struct {
	Processed       int               `json:"processed"`
	Failed          int               `json:"failed"`
	Events          int               `json:"events"`
	Silver          int               `json:"silver"`
	Gray            int               `json:"gray"`
	Pending         int               `json:"pending"`
	MeanConsistency float64           `json:"mean_consistency"`
	FailedDocuments []string          `json:"failed_documents,omitempty"`
	Documents       []*DocumentReport `json:"documents,omitempty"`
	Duration        time.Duration     `json:"duration"`
}

// RunBatch processes every pending document, newest first. A failing
// document is counted and skipped; it stays pending for the next batch.
// limit <= 0 processes all pending documents.
func (e *Engine) RunBatch(ctx context.Context, limit int) (*BatchReport, error) {
	if !e.mu.TryLock() {
		return nil, ErrBatchRunning
	}
	defer e.mu.Unlock()

	start := time.Now()
	docs, err := e.Store.PendingDocuments(ctx, limit)
	if err != nil {
		return nil, err
	}
	e.log.Info("Batch started", "pending", len(docs))

	report := &BatchReport{}
	var consistencySum float64
	dual := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			e.log.Warn("Batch interrupted", "error", err, "remaining", len(docs)-report.Processed-report.Failed)
			break
		}

		dr, err := e.processDocument(ctx, doc)
		if err != nil {
			report.Failed++
			report.FailedDocuments = append(report.FailedDocuments, doc.ID)
			e.log.Warn("Document failed", "doc_id", doc.ID, "error", err)
			continue
		}

		report.Processed++
		report.Documents = append(report.Documents, dr)
		report.Events += dr.Inserted
		report.Silver += dr.Silver
		report.Gray += dr.Gray
		report.Pending += dr.Pending
		if dr.DualRun {
			consistencySum += dr.Consistency
			dual++
		}
	}
	if dual > 0 {
		report.MeanConsistency = consistencySum / float64(dual)
	}
	report.Duration = time.Since(start)

	e.log.Info("Batch finished",
		"processed", report.Processed, "failed", report.Failed,
		"events", report.Events, "silver", report.Silver,
		"mean_consistency", report.MeanConsistency, "duration", report.Duration)
	return report, nil
}

// ProcessByID looks up one stored log and processes it.
func (e *Engine) ProcessByID(ctx context.Context, id string) (*DocumentReport, error) {
	doc, err := e.Store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.ProcessDocument(ctx, *doc)
}

// GovernanceReport collects the results of one governance run.
type GovernanceReport struct {
	Tags        *taxonomy.Report         `json:"tags"`
	Aliases     *alias.Report            `json:"aliases"`
	Definitions int                      `json:"definitions"`
	Suggestions []model.MergeSuggestion  `json:"suggestions"`
	Groups      []community.SynonymGroup `json:"groups"`
}

// Govern runs tag promotion, alias discovery and promotion, and the
// merge-suggestion scan, in that order.
func (e *Engine) Govern(ctx context.Context) (*GovernanceReport, error) {
	if !e.mu.TryLock() {
		return nil, ErrBatchRunning
	}
	defer e.mu.Unlock()

	report := &GovernanceReport{}

	tags, err := e.Taxonomy.Promote(ctx)
	if err != nil {
		return nil, fmt.Errorf("tag promotion: %w", err)
	}
	report.Tags = tags

	if e.Summarizer != nil && len(tags.Promoted) > 0 {
		promoted := make([]model.TaxonomyTag, 0, len(tags.Promoted))
		for _, d := range tags.Promoted {
			promoted = append(promoted, d.Tag)
		}
		n, err := e.Summarizer.FillDefinitions(ctx, e.Store, promoted)
		if err != nil {
			return nil, fmt.Errorf("definition drafting: %w", err)
		}
		report.Definitions = n
	}

	aliases, err := e.Aliases.Run(ctx)
	if err != nil {
		return nil, err
	}
	report.Aliases = aliases

	scan, err := e.Taxonomy.SuggestMerges(ctx)
	if err != nil {
		return nil, fmt.Errorf("merge scan: %w", err)
	}
	report.Suggestions = scan

	recorded, err := e.Store.ListSuggestions(ctx)
	if err != nil {
		return nil, err
	}
	all := append(append([]model.MergeSuggestion(nil), recorded...), scan...)
	report.Groups = community.Group(all, e.Clusterer)

	e.log.Info("Governance finished",
		"promoted", len(tags.Promoted), "rejected", len(tags.Rejected),
		"aliases_promoted", len(aliases.Promoted), "suggestions", len(scan), "groups", len(report.Groups))

	if e.Projector != nil {
		e.project(ctx, all)
	}
	return report, nil
}

func (e *Engine) project(ctx context.Context, suggestions []model.MergeSuggestion) {
	tags, err := e.Store.ListTags(ctx, model.TagFilter{})
	if err == nil {
		err = e.Projector.ProjectTags(ctx, tags)
	}
	if err == nil {
		var aliases []model.EntityAlias
		aliases, err = e.Store.ListAliases(ctx, model.AliasFilter{})
		if err == nil {
			err = e.Projector.ProjectAliases(ctx, aliases)
		}
	}
	if err == nil {
		err = e.Projector.ProjectSuggestions(ctx, suggestions)
	}
	if err != nil {
		e.log.Warn("Graph projection failed", "error", err)
	}
}
