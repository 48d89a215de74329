package filter

import (
	"context"
	"fmt"
	"slices"

	"github.com/ppiankov/biomap/internal/model"
)

// XrefSource lists the cross-references an external source knows for a prefix
type XrefSource interface {
	MappingsFor(ctx context.Context, prefix string) ([]model.Xref, error)
}

type graph map[model.RefKey][]model.RefKey

func (g graph) link(a, b model.RefKey) {
	if !slices.Contains(g[a], b) {
		g[a] = append(g[a], b)
	}
	if !slices.Contains(g[b], a) {
		g[b] = append(g[b], a)
	}
}

// MutualMappingGraph builds an undirected graph over the cross-references
// among prefix and targets. Edges leaving the prefix set are ignored.
func MutualMappingGraph(ctx context.Context, src XrefSource, prefixes []string) (map[model.RefKey][]model.RefKey, error) {
	g := graph{}
	for _, p := range prefixes {
		xrefs, err := src.MappingsFor(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("fetch xrefs for %s: %w", p, err)
		}
		for _, x := range xrefs {
			if !slices.Contains(prefixes, x.Subject.Prefix) || !slices.Contains(prefixes, x.Object.Prefix) {
				continue
			}
			g.link(x.Subject.Key(), x.Object.Key())
		}
	}
	for k := range g {
		slices.SortFunc(g[k], compareKeys)
	}
	return g, nil
}

// MutualMappingFilter derives an exclusion table from the mutual mapping
// graph: every node of prefix is excluded from re-prediction against each
// node it can reach. For each target prefix the nearest reachable node is
// recorded.
func MutualMappingFilter(ctx context.Context, src XrefSource, prefix string, targets []string) (ExclusionTable, error) {
	prefixes := append([]string{prefix}, targets...)
	g, err := MutualMappingGraph(ctx, src, prefixes)
	if err != nil {
		return nil, err
	}

	var sources []model.RefKey
	for k := range g {
		if k.Prefix == prefix {
			sources = append(sources, k)
		}
	}
	slices.SortFunc(sources, compareKeys)

	table := ExclusionTable{}
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, target := range reachable(g, source) {
			table.Add(
				model.Reference{Prefix: source.Prefix, Identifier: source.Identifier},
				model.Reference{Prefix: target.Prefix, Identifier: target.Identifier},
			)
		}
	}
	return table, nil
}

// reachable lists nodes reachable from start in breadth-first order,
// excluding start itself
func reachable(g map[model.RefKey][]model.RefKey, start model.RefKey) []model.RefKey {
	visited := map[model.RefKey]bool{start: true}
	queue := []model.RefKey{start}
	var out []model.RefKey

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, n := range g[current] {
			if visited[n] {
				continue
			}
			visited[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

func compareKeys(a, b model.RefKey) int {
	return model.CompareReferences(
		model.Reference{Prefix: a.Prefix, Identifier: a.Identifier},
		model.Reference{Prefix: b.Prefix, Identifier: b.Identifier},
	)
}
