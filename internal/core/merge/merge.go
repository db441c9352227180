package merge

import (
	"errors"
	"unicode/utf8"

	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/policy"
	"github.com/agenthands/eventgov/internal/core/reconcile"
)

// ErrNoRun is returned when neither oracle run succeeded.
var ErrNoRun = errors.New("both extraction runs failed")

// Run is what the merger needs from one oracle run.
type Run struct {
	OK          bool
	Extractions []model.Extraction
	// Raw is archived verbatim on every event of the document.
	Raw string
}

// Plan is the set of events derived from one document, ready to persist.
type Plan struct {
	Events []model.Event
	// DualRun is true when both runs succeeded and were reconciled.
	DualRun bool
	// Consistency is the document-level mean agreement of matched pairs.
	Consistency float64
	Matched     int
	Unmatched   int
}

type Merger struct {
	Policy policy.Policy
}

func NewMerger(p policy.Policy) *Merger {
	return &Merger{Policy: p}
}

// Build turns the two runs over doc into classified events.
func (m *Merger) Build(doc model.Document, a, b Run) (*Plan, error) {
	switch {
	case a.OK && b.OK:
		return m.dual(doc, a, b), nil
	case a.OK:
		return m.single(doc, a, a.Raw, ""), nil
	case b.OK:
		return m.single(doc, b, "", b.Raw), nil
	}
	return nil, ErrNoRun
}

func (m *Merger) dual(doc model.Document, a, b Run) *Plan {
	out := reconcile.Reconcile(a.Extractions, b.Extractions)
	plan := &Plan{
		DualRun:     true,
		Consistency: out.Consistency,
		Matched:     len(out.Pairs),
		Unmatched:   len(out.UnmatchedA),
	}

	for _, p := range out.Pairs {
		ev := newEvent(doc, MergePair(p.A, p.B), a.Raw, b.Raw)
		ev.Agreement = p.Agreement
		ev.Status = m.Classify(ev.Confidence, p.Agreement)
		plan.Events = append(plan.Events, ev)
	}
	for _, ex := range out.UnmatchedA {
		ev := newEvent(doc, ex, a.Raw, b.Raw)
		ev.Status = model.StatusGray
		plan.Events = append(plan.Events, ev)
	}
	return plan
}

func (m *Merger) single(doc model.Document, run Run, rawA, rawB string) *Plan {
	plan := &Plan{}
	for _, ex := range run.Extractions {
		ev := newEvent(doc, ex, rawA, rawB)
		ev.Status = model.StatusPending
		plan.Events = append(plan.Events, ev)
	}
	return plan
}

// Classify applies the silver rule to a matched pair.
func (m *Merger) Classify(confidence, agreement float64) model.ConsistencyStatus {
	if confidence >= m.Policy.SilverConfidence && agreement >= m.Policy.SilverAgreement {
		return model.StatusSilver
	}
	return model.StatusGray
}

func newEvent(doc model.Document, ex model.Extraction, rawA, rawB string) model.Event {
	return model.Event{
		DocumentID: doc.ID,
		RawSpan:    ex.RawSpan,
		School:     ex.School,
		Product:    ex.Product,
		Tags:       ex.Tags,
		Confidence: EventConfidence(ex),
		RunA:       rawA,
		RunB:       rawB,
		OccurredOn: doc.Date,
	}
}

// MergePair keeps, per field, the value of the run that was more confident
// about it; ties keep a. The merged confidence is the higher of the two.
// The longer raw span wins as the more complete quote.
func MergePair(a, b model.Extraction) model.Extraction {
	out := model.Extraction{
		RawSpan:  a.RawSpan,
		School:   pickName(a.School, b.School),
		Product:  pickName(a.Product, b.Product),
		Reported: max(a.Reported, b.Reported),
	}
	if utf8.RuneCountInString(b.RawSpan) > utf8.RuneCountInString(a.RawSpan) {
		out.RawSpan = b.RawSpan
	}
	for _, d := range model.Dimensions() {
		out.Tags.Set(d, pickTag(a.Tags.Get(d), b.Tags.Get(d)))
	}
	return out
}

func pickName(a, b model.EntityName) model.EntityName {
	if b.Confidence > a.Confidence {
		return b
	}
	a.Confidence = max(a.Confidence, b.Confidence)
	return a
}

func pickTag(a, b model.TagValue) model.TagValue {
	if b.Confidence > a.Confidence {
		return b
	}
	return a
}

// EventConfidence is the mean of the school, product, action_type and
// outcome confidences that are present, or 0.5 when none is. Blocker is
// left out since it is often legitimately absent.
func EventConfidence(ex model.Extraction) float64 {
	var sum float64
	n := 0
	for _, c := range []float64{
		ex.School.Confidence,
		ex.Product.Confidence,
		ex.Tags.ActionType.Confidence,
		ex.Tags.Outcome.Confidence,
	} {
		if c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 0.5
	}
	return model.Clamp01(sum / float64(n))
}
