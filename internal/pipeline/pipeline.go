// Package pipeline ingests candidate mappings from producers into the
// predicted set.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/ppiankov/biomap/internal/filter"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/registry"
	"github.com/ppiankov/biomap/internal/store"
	"github.com/ppiankov/biomap/internal/xref"
)

// Pipeline orchestrates one import: normalize, filter, append
type Pipeline struct {
	store         *store.Store
	registry      *registry.Registry
	provider      xref.Provider
	exclusions    filter.ExclusionTable
	mutual        bool
	via           []string
	holdAmbiguous bool
	workers       int
	logger        *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithRegistry sets the registry candidates are normalized against
func WithRegistry(r *registry.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithProvider enables existing-xref suppression through provider
func WithProvider(provider xref.Provider) Option {
	return func(p *Pipeline) { p.provider = provider }
}

// WithExclusions adds a custom exclusion table
func WithExclusions(t filter.ExclusionTable) Option {
	return func(p *Pipeline) { p.exclusions = t }
}

// WithMutualMappings also applies the mutual mapping graph filter, walking
// through the via prefixes as well as the candidates' own. It needs a
// provider.
func WithMutualMappings(via ...string) Option {
	return func(p *Pipeline) {
		p.mutual = true
		p.via = via
	}
}

// WithAmbiguousHeld keeps ambiguous candidates out of the predicted set and
// returns them in Result.Ambiguous instead
func WithAmbiguousHeld() Option {
	return func(p *Pipeline) { p.holdAmbiguous = true }
}

// WithWorkers bounds concurrent provider fetches
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline writing into s
func New(s *store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{store: s, workers: 4}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = registry.Default()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Result describes one import
type Result struct {
	Read      int                     `json:"read" yaml:"read"`
	Invalid   int                     `json:"invalid" yaml:"invalid"`
	Added     int                     `json:"added" yaml:"added"`
	Rejected  map[string]int          `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	Ambiguous []model.SemanticMapping `json:"-" yaml:"-"`
}

// ImportFile reads candidates from an SSSOM-TSV file and imports them
func (p *Pipeline) ImportFile(ctx context.Context, path string) (*Result, error) {
	candidates, err := store.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return p.Import(ctx, candidates)
}

// Import filters candidates and appends the survivors to the predicted set
func (p *Pipeline) Import(ctx context.Context, candidates []model.SemanticMapping) (*Result, error) {
	result := &Result{Read: len(candidates)}

	// 1. Normalize and drop records that cannot be predictions
	valid := p.normalize(candidates)
	result.Invalid = len(candidates) - len(valid)

	// 2. Build filters from the current repository
	snap, err := p.store.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read repository: %w", err)
	}
	filters := []filter.Filter{filter.Curated(snap.Curated()...)}
	if p.exclusions != nil {
		filters = append(filters, filter.Custom(p.exclusions))
	}

	// 3. Provider-backed filters
	if p.provider != nil {
		fs, err := p.providerFilters(ctx, valid)
		if err != nil {
			return nil, err
		}
		filters = append(filters, fs...)
	}

	// 4. Run the filter pipeline
	kept, stats := filter.New(p.logger, filters...).Collect(slices.Values(valid))
	result.Rejected = stats.Rejected

	// 5. Route ambiguous candidates
	if p.holdAmbiguous {
		result.Ambiguous, kept = SplitAmbiguous(p.registry, kept)
	}

	// 6. Append
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	before, err := p.store.Read(model.SetPredicted)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	if len(kept) > 0 {
		if err := p.store.AppendPredictions(kept); err != nil {
			return nil, fmt.Errorf("append predictions: %w", err)
		}
	}
	after, err := p.store.Read(model.SetPredicted)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	result.Added = len(after) - len(before)

	p.logger.Info("imported candidates",
		"read", result.Read,
		"invalid", result.Invalid,
		"added", result.Added,
		"ambiguous", len(result.Ambiguous),
	)
	return result, nil
}

func (p *Pipeline) normalize(candidates []model.SemanticMapping) []model.SemanticMapping {
	out := make([]model.SemanticMapping, 0, len(candidates))
	for i, c := range candidates {
		m, err := p.registry.NormalizeMapping(c)
		if err == nil {
			err = store.CheckRecord(model.SetPredicted, i, m)
		}
		if err != nil {
			p.logger.Debug("dropping candidate", "position", i, "mapping", c.String(), "error", err)
			continue
		}
		out = append(out, m)
	}
	return out
}

func (p *Pipeline) providerFilters(ctx context.Context, ms []model.SemanticMapping) ([]filter.Filter, error) {
	var prefixes []string
	sources := map[string][]string{}
	for _, m := range ms {
		for _, prefix := range []string{m.Subject.Prefix, m.Object.Prefix} {
			if !slices.Contains(prefixes, prefix) {
				prefixes = append(prefixes, prefix)
			}
		}
		if !slices.Contains(sources[m.Subject.Prefix], m.Object.Prefix) {
			sources[m.Subject.Prefix] = append(sources[m.Subject.Prefix], m.Object.Prefix)
		}
	}
	slices.Sort(prefixes)

	index, err := xref.BuildIndex(ctx, p.provider, prefixes, p.workers)
	if err != nil {
		return nil, fmt.Errorf("build xref index: %w", err)
	}
	filters := []filter.Filter{filter.ExistingXrefs(index)}

	if p.mutual {
		table := filter.ExclusionTable{}
		var errs []error
		for _, source := range slices.Sorted(maps.Keys(sources)) {
			targets := slices.Concat(sources[source], p.via)
			slices.Sort(targets)
			targets = slices.Compact(targets)
			targets = slices.DeleteFunc(targets, func(t string) bool { return t == source })
			if len(targets) == 0 {
				continue
			}
			t, err := filter.MutualMappingFilter(ctx, p.provider, source, targets)
			if err != nil {
				errs = append(errs, fmt.Errorf("mutual mappings for %s: %w", source, err))
				continue
			}
			table.Merge(t)
		}
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
		mutual := filter.Custom(table)
		mutual.Name = "mutual_mappings"
		filters = append(filters, mutual)
	}
	return filters, nil
}

// SplitAmbiguous separates candidates whose subject or object IRI occurs
// more than once in the batch. References the registry cannot expand are
// compared by CURIE.
func SplitAmbiguous(reg *registry.Registry, ms []model.SemanticMapping) (ambiguous, unambiguous []model.SemanticMapping) {
	candidates := make([]filter.Candidate, len(ms))
	byCandidate := make(map[filter.Candidate][]int, len(ms))
	for i, m := range ms {
		c := filter.Candidate{
			SourceIRI:  iri(reg, m.Subject),
			SourceName: m.Subject.Name,
			TargetIRI:  iri(reg, m.Object),
			TargetName: m.Object.Name,
		}
		candidates[i] = c
		byCandidate[c] = append(byCandidate[c], i)
	}

	amb, _ := filter.CheckAmbiguous(candidates)
	flagged := make(map[int]bool, len(amb))
	for _, c := range amb {
		for _, i := range byCandidate[c] {
			flagged[i] = true
		}
	}
	for i, m := range ms {
		if flagged[i] {
			ambiguous = append(ambiguous, m)
		} else {
			unambiguous = append(unambiguous, m)
		}
	}
	return ambiguous, unambiguous
}

func iri(reg *registry.Registry, ref model.Reference) string {
	if u, ok := reg.Expand(ref); ok {
		return u
	}
	return ref.CURIE()
}
