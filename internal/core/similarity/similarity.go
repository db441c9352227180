// Package similarity scores how alike two short names are. Every governance
// decision (tag promotion veto, alias discovery, merge suggestions) goes
// through a Strategy so the heuristic can be replaced without touching them.
package similarity

import "strings"

// Strategy scores a pair of strings in [0,1]. Implementations must be symmetric.
type Strategy interface {
	Score(a, b string) float64
}

// Func adapts a plain function to Strategy.
type Func func(a, b string) float64

func (f Func) Score(a, b string) float64 { return f(a, b) }

// DefaultContainmentScore is returned when one name contains the other.
const DefaultContainmentScore = 0.9

// SubstringJaccard treats containment as a strong match (abbreviations,
// expansions) and otherwise falls back to the Jaccard index of the two
// strings' character sets.
type SubstringJaccard struct {
	ContainmentScore float64
}

// Default returns the substring/Jaccard strategy with the standard 0.9 score.
func Default() SubstringJaccard {
	return SubstringJaccard{ContainmentScore: DefaultContainmentScore}
}

func (s SubstringJaccard) Score(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return s.ContainmentScore
	}
	return Jaccard(a, b)
}

// Jaccard is |A∩B| / |A∪B| over the unique runes of a and b.
func Jaccard(a, b string) float64 {
	setA := runeSet(a)
	setB := runeSet(b)
	union := len(setA)
	inter := 0
	for r := range setB {
		if _, ok := setA[r]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Contains reports whether either trimmed, case-folded string contains the
// other. Empty strings never match.
func Contains(a, b string) bool {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
