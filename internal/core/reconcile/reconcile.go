package reconcile

import (
	"strings"

	"github.com/agenthands/eventgov/internal/core/model"
	"github.com/agenthands/eventgov/internal/core/similarity"
)

// Pair is a variant-A extraction matched to its best variant-B counterpart.
type Pair struct {
	A         model.Extraction
	B         model.Extraction
	IndexA    int
	IndexB    int
	Agreement float64
}

// Outcome is the reconciliation of two runs over one document.
type Outcome struct {
	Pairs      []Pair
	UnmatchedA []model.Extraction
	// Consistency is the mean agreement over Pairs, 0 when nothing matched.
	Consistency float64
}

// Reconcile matches every A extraction against the B extractions. A
// B extraction is a candidate match when the two school names are
// substring-compatible; among candidates the highest field agreement wins
// and ties go to the earliest B. B extractions may match more than one A.
func Reconcile(a, b []model.Extraction) Outcome {
	var out Outcome
	var total float64

	for i, ea := range a {
		schoolA := ea.School.Key()
		best := -1
		bestScore := -1.0

		for j, eb := range b {
			if !SchoolsCompatible(schoolA, eb.School.Key()) {
				continue
			}
			if score := FieldAgreement(ea, eb); score > bestScore {
				best, bestScore = j, score
			}
		}

		if best < 0 {
			out.UnmatchedA = append(out.UnmatchedA, ea)
			continue
		}
		out.Pairs = append(out.Pairs, Pair{A: ea, B: b[best], IndexA: i, IndexB: best, Agreement: bestScore})
		total += bestScore
	}

	if len(out.Pairs) > 0 {
		out.Consistency = total / float64(len(out.Pairs))
	}
	return out
}

// SchoolsCompatible reports whether both names are present and one
// contains the other, ignoring case and surrounding space.
func SchoolsCompatible(a, b string) bool {
	return similarity.Contains(a, b)
}

// FieldAgreement scores how far two extractions agree on action_type,
// blocker, outcome and canonical product. Fields empty on both sides are
// left out of the denominator. With no field to compare the score is 0:
// two runs that both found nothing are not evidence of agreement.
func FieldAgreement(a, b model.Extraction) float64 {
	fields := [][2]string{
		{a.Tags.ActionType.Name, b.Tags.ActionType.Name},
		{a.Tags.Blocker.Name, b.Tags.Blocker.Name},
		{a.Tags.Outcome.Name, b.Tags.Outcome.Name},
		{a.Product.Canonical, b.Product.Canonical},
	}

	compared, agreed := 0, 0
	for _, f := range fields {
		va, vb := strings.TrimSpace(f[0]), strings.TrimSpace(f[1])
		if va == "" && vb == "" {
			continue
		}
		compared++
		if va == vb || similarity.Contains(va, vb) {
			agreed++
		}
	}

	if compared == 0 {
		return 0
	}
	return float64(agreed) / float64(compared)
}
