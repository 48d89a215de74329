package xref

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/worker"
)

// FetchAll fetches several prefixes concurrently. Results for prefixes that
// succeeded are returned alongside the joined errors of those that failed.
func FetchAll(ctx context.Context, p Provider, prefixes []string, workers int) (map[string][]model.Xref, error) {
	tasks := make([]worker.Task[[]model.Xref], len(prefixes))
	for i, prefix := range prefixes {
		tasks[i] = func(ctx context.Context) ([]model.Xref, error) {
			return p.MappingsFor(ctx, prefix)
		}
	}

	out := make(map[string][]model.Xref, len(prefixes))
	var errs []error
	for _, r := range worker.Run(ctx, workers, tasks) {
		prefix := prefixes[r.Index]
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, r.Err))
			continue
		}
		out[prefix] = r.Value
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return out, errors.Join(errs...)
}

// Index records, for each reference, the prefixes it already maps into
type Index struct {
	targets map[model.RefKey][]string
}

// NewIndex indexes xrefs in both directions
func NewIndex(sets ...[]model.Xref) *Index {
	idx := &Index{targets: map[model.RefKey][]string{}}
	for _, xrefs := range sets {
		for _, x := range xrefs {
			idx.add(x.Subject, x.Object.Prefix)
			idx.add(x.Object, x.Subject.Prefix)
		}
	}
	return idx
}

func (idx *Index) add(ref model.Reference, prefix string) {
	k := ref.Key()
	prefixes := idx.targets[k]
	i, found := slices.BinarySearch(prefixes, prefix)
	if found {
		return
	}
	idx.targets[k] = slices.Insert(prefixes, i, prefix)
}

// KnownTargets returns the sorted prefixes ref is already mapped into
func (idx *Index) KnownTargets(ref model.Reference) []string {
	return idx.targets[ref.Key()]
}

// Len counts indexed references
func (idx *Index) Len() int {
	return len(idx.targets)
}

// BuildIndex fetches the given prefixes and indexes the result
func BuildIndex(ctx context.Context, p Provider, prefixes []string, workers int) (*Index, error) {
	byPrefix, err := FetchAll(ctx, p, prefixes, workers)
	if err != nil {
		return nil, err
	}
	sets := make([][]model.Xref, 0, len(prefixes))
	for _, prefix := range prefixes {
		sets = append(sets, byPrefix[prefix])
	}
	return NewIndex(sets...), nil
}
