// Package community groups tags linked by merge suggestions into synonym
// clusters so a reviewer can settle a whole cluster at once.
package community

import (
	"sort"

	"github.com/agenthands/eventgov/internal/core/model"
)

// Edge links two node keys with a similarity weight.
type Edge struct {
	Source string
	Target string
	Weight float64
}

// Detector partitions nodes into clusters of two or more members.
type Detector interface {
	Detect(nodes []string, edges []Edge) [][]string
}

// SynonymGroup is a cluster of same-dimension tags that look like synonyms.
type SynonymGroup struct {
	Dimension model.Dimension `json:"dimension"`
	// Anchor is the suggested merge target: the tag most often named as a
	// target, ties broken by name.
	Anchor string   `json:"anchor"`
	Tags   []string `json:"tags"`
}

// Group clusters suggestions per dimension with d.
func Group(suggestions []model.MergeSuggestion, d Detector) []SynonymGroup {
	byDim := make(map[model.Dimension][]model.MergeSuggestion)
	for _, s := range suggestions {
		byDim[s.Dimension] = append(byDim[s.Dimension], s)
	}

	var groups []SynonymGroup
	for _, dim := range model.Dimensions() {
		list := byDim[dim]
		if len(list) == 0 {
			continue
		}

		seen := make(map[string]bool)
		var nodes []string
		var edges []Edge
		targets := make(map[string]int)
		for _, s := range list {
			for _, n := range []string{s.Tag, s.Target} {
				if !seen[n] {
					seen[n] = true
					nodes = append(nodes, n)
				}
			}
			edges = append(edges, Edge{Source: s.Tag, Target: s.Target, Weight: s.Similarity})
			targets[s.Target]++
		}

		for _, cluster := range d.Detect(nodes, edges) {
			sort.Strings(cluster)
			anchor := cluster[0]
			for _, n := range cluster[1:] {
				if targets[n] > targets[anchor] {
					anchor = n
				}
			}
			groups = append(groups, SynonymGroup{Dimension: dim, Anchor: anchor, Tags: cluster})
		}
	}
	return groups
}

// Components is the connected-components detector.
type Components struct{}

func (Components) Detect(nodes []string, edges []Edge) [][]string {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n] = true
	}
	adj := make(map[string][]string)
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	visited := make(map[string]bool)
	var out [][]string
	for _, n := range nodes {
		if visited[n] {
			continue
		}
		var component []string
		stack := []string{n}
		visited[n] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, u)
			for _, v := range adj[u] {
				if !visited[v] {
					visited[v] = true
					stack = append(stack, v)
				}
			}
		}
		if len(component) >= 2 {
			out = append(out, component)
		}
	}
	return out
}
