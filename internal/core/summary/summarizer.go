// Package summary drafts human-readable definitions for tags that entered
// the vocabulary without one.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/eventgov/internal/core/common"
	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/llm"
	"github.com/agenthands/eventgov/internal/logger"
)

const definitionSystemPrompt = `你是销售日报标签体系的维护者。给定一个标签名和若干原文片段，请用一句话（不超过30字）定义该标签。
只返回JSON：{"definition": "..."}`

const maxExamples = 5

type Store interface {
	TagExamples(ctx context.Context, d model.Dimension, name string, limit int) ([]string, error)
	SetTagDefinition(ctx context.Context, id, definition string) error
}

type Summarizer struct {
	LLM llm.LLMClient

	log *logger.Logger
}

func NewSummarizer(client llm.LLMClient, log *logger.Logger) *Summarizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Summarizer{LLM: client, log: log}
}

type definitionResult struct {
	Definition string `json:"definition"`
}

// DraftDefinition asks the oracle for a one-line definition of tag based on
// the spans it was extracted from.
func (s *Summarizer) DraftDefinition(ctx context.Context, tag model.TaxonomyTag, examples []string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "维度：%s\n标签：%s\n原文片段：\n", tag.Dimension, tag.Name)
	for i, ex := range examples {
		if i == maxExamples {
			break
		}
		fmt.Fprintf(&sb, "- %s\n", common.Truncate(ex, 120))
	}

	response, err := s.LLM.Generate(ctx, definitionSystemPrompt, sb.String())
	if err != nil {
		return "", fmt.Errorf("failed to generate definition: %w", err)
	}

	result, err := common.ParseJSON[definitionResult](response)
	if err == nil {
		return strings.TrimSpace(result.Definition), nil
	}
	// Models sometimes answer with the bare sentence.
	plain := strings.TrimSpace(common.StripCodeFences(response))
	if plain == "" || strings.ContainsAny(plain, "{}[]") {
		return "", fmt.Errorf("failed to parse definition: %w", err)
	}
	return common.Truncate(plain, 60), nil
}

// FillDefinitions drafts and stores definitions for the tags that have
// none. Failures are logged and skipped. It returns how many were filled.
func (s *Summarizer) FillDefinitions(ctx context.Context, store Store, tags []model.TaxonomyTag) (int, error) {
	filled := 0
	for _, t := range tags {
		if strings.TrimSpace(t.Definition) != "" {
			continue
		}
		examples, err := store.TagExamples(ctx, t.Dimension, t.Name, maxExamples)
		if err != nil {
			return filled, err
		}
		def, err := s.DraftDefinition(ctx, t, examples)
		if err != nil || def == "" {
			s.log.Warn("Definition draft failed", "dimension", t.Dimension, "tag", t.Name, "error", err)
			continue
		}
		if err := store.SetTagDefinition(ctx, t.ID, def); err != nil {
			return filled, err
		}
		filled++
	}
	return filled, nil
}
