// Package filter removes candidate mappings that are already known,
// excluded, or ambiguous before they reach the predicted set.
package filter

import (
	"iter"
	"log/slog"
	"slices"

	"github.com/ppiankov/biomap/internal/model"
)

// Filter is one named stage. Keep must depend only on the mapping and the
// side tables captured when the filter was built.
type Filter struct {
	Name string
	Keep func(model.SemanticMapping) bool
}

// Custom drops candidates whose subject already has a target in the
// object's prefix according to table
func Custom(table ExclusionTable) Filter {
	return Filter{
		Name: "custom",
		Keep: func(m model.SemanticMapping) bool {
			return !table.Excludes(m)
		},
	}
}

// Curated drops candidates whose pair is already covered by curated sets
func Curated(curated ...[]model.SemanticMapping) Filter {
	f := Custom(NewExclusionTable(curated...))
	f.Name = "curated"
	return f
}

// TargetIndex answers which prefixes a reference is already mapped into
type TargetIndex interface {
	KnownTargets(ref model.Reference) []string
}

// ExistingXrefs drops candidates whose subject is already mapped into the
// object's prefix, or whose object is already mapped into the subject's
func ExistingXrefs(index TargetIndex) Filter {
	return Filter{
		Name: "existing_xrefs",
		Keep: func(m model.SemanticMapping) bool {
			if slices.Contains(index.KnownTargets(m.Subject), m.Object.Prefix) {
				return false
			}
			return !slices.Contains(index.KnownTargets(m.Object), m.Subject.Prefix)
		},
	}
}

// Apply lazily yields the mappings that pass f, preserving order
func (f Filter) Apply(in iter.Seq[model.SemanticMapping]) iter.Seq[model.SemanticMapping] {
	return New(nil, f).Run(in)
}

// Pipeline chains filters and counts rejections per stage
type Pipeline struct {
	filters []Filter
	logger  *slog.Logger
}

// New builds a pipeline; a nil logger uses slog.Default
func New(logger *slog.Logger, filters ...Filter) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{filters: filters, logger: logger}
}

// Stats holds the outcome of one pass through a pipeline
type Stats struct {
	Seen     int
	Kept     int
	Rejected map[string]int
}

// Run returns a restartable sequence of surviving mappings. Counts are
// logged once a pass runs to completion.
func (p *Pipeline) Run(in iter.Seq[model.SemanticMapping]) iter.Seq[model.SemanticMapping] {
	return func(yield func(model.SemanticMapping) bool) {
		p.run(in, yield)
	}
}

// Collect runs the pipeline to completion and returns survivors with stats
func (p *Pipeline) Collect(in iter.Seq[model.SemanticMapping]) ([]model.SemanticMapping, Stats) {
	var out []model.SemanticMapping
	stats := p.run(in, func(m model.SemanticMapping) bool {
		out = append(out, m)
		return true
	})
	return out, stats
}

func (p *Pipeline) run(in iter.Seq[model.SemanticMapping], yield func(model.SemanticMapping) bool) Stats {
	stats := Stats{Rejected: make(map[string]int, len(p.filters))}
	for m := range in {
		stats.Seen++
		if name, ok := p.rejects(m); ok {
			stats.Rejected[name]++
			continue
		}
		stats.Kept++
		if !yield(m) {
			return stats
		}
	}
	for _, f := range p.filters {
		p.logger.Info("filtered candidates", "filter", f.Name, "rejected", stats.Rejected[f.Name])
	}
	p.logger.Debug("filter pipeline done", "seen", stats.Seen, "kept", stats.Kept)
	return stats
}

func (p *Pipeline) rejects(m model.SemanticMapping) (string, bool) {
	for _, f := range p.filters {
		if !f.Keep(m) {
			return f.Name, true
		}
	}
	return "", false
}
