package community

import "sort"

// LabelPropagation clusters by repeatedly giving each node the label with
// the largest total edge weight among its neighbours. Unlike connected
// components it can split a long chain of pairwise-similar names.
type LabelPropagation struct {
	MaxIterations int
}

func NewLabelPropagation() *LabelPropagation {
	return &LabelPropagation{MaxIterations: 20}
}

func (d *LabelPropagation) Detect(nodes []string, edges []Edge) [][]string {
	if len(nodes) == 0 {
		return nil
	}

	adj := make(map[string]map[string]float64, len(nodes))
	for _, n := range nodes {
		adj[n] = make(map[string]float64)
	}
	for _, e := range edges {
		if _, ok := adj[e.Source]; !ok {
			continue
		}
		if _, ok := adj[e.Target]; !ok {
			continue
		}
		adj[e.Source][e.Target] += e.Weight
		adj[e.Target][e.Source] += e.Weight
	}

	labels := make(map[string]string, len(nodes))
	for _, n := range nodes {
		labels[n] = n
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for _, u := range nodes {
			neighbours := adj[u]
			if len(neighbours) == 0 {
				continue
			}

			weights := make(map[string]float64)
			for v, w := range neighbours {
				weights[labels[v]] += w
			}
			best := bestLabel(weights)
			if labels[u] != best {
				labels[u] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}

	clusters := make(map[string][]string)
	for _, n := range nodes {
		clusters[labels[n]] = append(clusters[labels[n]], n)
	}

	keys := make([]string, 0, len(clusters))
	for k := range clusters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out [][]string
	for _, k := range keys {
		if len(clusters[k]) >= 2 {
			out = append(out, clusters[k])
		}
	}
	return out
}

// bestLabel returns the heaviest label; ties go to the lexicographically
// largest so results do not depend on map order.
func bestLabel(weights map[string]float64) string {
	best, bestW := "", -1.0
	for label, w := range weights {
		if w > bestW || (w == bestW && label > best) {
			best, bestW = label, w
		}
	}
	return best
}
