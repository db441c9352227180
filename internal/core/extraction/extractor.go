package extraction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agenthands/eventgov/internal/core/common"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/llm"
	"github.com/agenthands/eventgov/internal/logger"
)

// ErrSchema marks an oracle answer that is not a JSON array of event
// objects matching the expected fields.
var ErrSchema = errors.New("oracle response violates schema")

// Result is the typed outcome of one oracle run. The adapter never returns
// an error past its boundary; a failed run carries Err instead.
type Result struct {
	Variant     Variant
	Extractions []model.Extraction
	// Raw is the verbatim text of the last answer, kept for audit.
	Raw      string
	Attempts int
	Err      error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Extractor struct {
	LLM     llm.LLMClient
	Prompts *PromptBuilder
	Retry   RetryPolicy
	// Limiter paces oracle calls across documents. Nil means unlimited.
	Limiter *rate.Limiter

	log   *logger.Logger
	sleep func(context.Context, time.Duration) error
}

func NewExtractor(client llm.LLMClient, prompts *PromptBuilder, retry RetryPolicy, limiter *rate.Limiter, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	return &Extractor{
		LLM:     client,
		Prompts: prompts,
		Retry:   retry,
		Limiter: limiter,
		log:     log,
		sleep:   sleepContext,
	}
}

// Extract runs one variant over a document, retrying transport and schema
// failures up to the policy's attempt count.
func (e *Extractor) Extract(ctx context.Context, doc model.Document, stable []model.TaxonomyTag, v Variant) Result {
	system := e.Prompts.System(stable, v)
	user := e.Prompts.User(doc.Content)
	res := Result{Variant: v}

	for attempt := 1; attempt <= e.Retry.MaxAttempts; attempt++ {
		res.Attempts = attempt

		if e.Limiter != nil {
			if err := e.Limiter.Wait(ctx); err != nil {
				res.Err = fmt.Errorf("rate limiter: %w", err)
				return res
			}
		}

		raw, extractions, dropped, err := e.call(ctx, system, user)
		res.Raw = raw
		if err == nil {
			res.Extractions = extractions
			res.Err = nil
			if dropped > 0 {
				e.log.Warn("Dropped events without raw_span", "doc_id", doc.ID, "variant", v, "dropped", dropped)
			}
			if attempt > 1 {
				e.log.Info("Oracle call succeeded after retry", "doc_id", doc.ID, "variant", v, "attempt", attempt)
			}
			return res
		}
		res.Err = err

		e.log.Warn("Oracle call failed", "doc_id", doc.ID, "variant", v,
			"attempt", attempt, "max_attempts", e.Retry.MaxAttempts, "error", err)

		if attempt == e.Retry.MaxAttempts {
			break
		}
		if err := e.sleep(ctx, e.Retry.delay(attempt)); err != nil {
			res.Err = fmt.Errorf("retry interrupted: %w", err)
			return res
		}
	}

	res.Err = fmt.Errorf("variant %s failed after %d attempts: %w", v, res.Attempts, res.Err)
	return res
}

func (e *Extractor) call(ctx context.Context, system, user string) (string, []model.Extraction, int, error) {
	callCtx := ctx
	if e.Retry.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.Retry.Timeout)
		defer cancel()
	}

	raw, err := e.LLM.Generate(callCtx, system, user)
	if err != nil {
		return "", nil, 0, fmt.Errorf("oracle call: %w", err)
	}

	extractions, dropped, err := parseCandidates(raw)
	if err != nil {
		return raw, nil, 0, err
	}
	return raw, extractions, dropped, nil
}

// ParseCandidates decodes and validates an oracle answer. Events without a
// raw_span are skipped; the rest of the answer is kept.
func ParseCandidates(raw string) ([]model.Extraction, error) {
	out, _, err := parseCandidates(raw)
	return out, err
}

func parseCandidates(raw string) ([]model.Extraction, int, error) {
	jsonStr, err := common.ExtractJSON(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if !strings.HasPrefix(jsonStr, "[") {
		return nil, 0, fmt.Errorf("%w: expected a JSON array, got %s", ErrSchema, common.Truncate(jsonStr, 40))
	}

	candidates, err := common.ParseJSON[[]model.Candidate](jsonStr)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	out := make([]model.Extraction, 0, len(candidates))
	dropped := 0
	for i, c := range candidates {
		if err := validateCandidate(c); err != nil {
			return nil, 0, fmt.Errorf("%w: event %d: %v", ErrSchema, i, err)
		}
		if strings.TrimSpace(c.RawSpan) == "" {
			dropped++
			continue
		}
		out = append(out, c.Extraction())
	}
	return out, dropped, nil
}

func validateCandidate(c model.Candidate) error {
	confs := map[string]float64{
		"school_conf":      c.SchoolConf,
		"product_conf":     c.ProductConf,
		"action_type_conf": c.ActionTypeConf,
		"blocker_conf":     c.BlockerConf,
		"outcome_conf":     c.OutcomeConf,
		"event_conf":       c.EventConf,
	}
	for name, v := range confs {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s=%v outside [0,1]", name, v)
		}
	}
	return nil
}
