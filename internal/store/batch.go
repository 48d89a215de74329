package store

import (
	"fmt"
	"os"

	"github.com/ppiankov/biomap/internal/canon"
	"github.com/ppiankov/biomap/internal/model"
)

type pendingWrite struct {
	set    model.SetName
	ms     []model.SemanticMapping
	append bool
	opts   []WriteOption
}

// Batch collects writes to several sets that must land together
type Batch struct {
	writes []pendingWrite
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{}
}

// Write replaces set with ms when the batch is applied
func (b *Batch) Write(set model.SetName, ms []model.SemanticMapping, opts ...WriteOption) {
	b.writes = append(b.writes, pendingWrite{set: set, ms: ms, opts: opts})
}

// Append adds ms to set when the batch is applied
func (b *Batch) Append(set model.SetName, ms []model.SemanticMapping, opts ...WriteOption) {
	b.writes = append(b.writes, pendingWrite{set: set, ms: ms, append: true, opts: opts})
}

// Len counts queued writes
func (b *Batch) Len() int {
	return len(b.writes)
}

// Sets lists touched sets in first-touch order
func (b *Batch) Sets() []model.SetName {
	var out []model.SetName
	seen := map[model.SetName]bool{}
	for _, w := range b.writes {
		if !seen[w.set] {
			seen[w.set] = true
			out = append(out, w.set)
		}
	}
	return out
}

// Apply resolves, validates and stages every write of the batch, then
// renames the staged files into place. Nothing is replaced unless every
// set was staged.
func (s *Store) Apply(b *Batch) error {
	if b.Len() == 0 {
		return nil
	}

	previous := map[model.SetName][]model.SemanticMapping{}
	final := map[model.SetName][]model.SemanticMapping{}
	current := func(set model.SetName) ([]model.SemanticMapping, error) {
		if ms, ok := final[set]; ok {
			return ms, nil
		}
		if ms, ok := previous[set]; ok {
			return ms, nil
		}
		ms, err := s.Read(set)
		if err != nil {
			return nil, fmt.Errorf("read %s set: %w", set, err)
		}
		previous[set] = ms
		return ms, nil
	}

	for _, w := range b.writes {
		if _, err := model.ParseSetName(string(w.set)); err != nil {
			return err
		}
		if _, err := current(w.set); err != nil {
			return err
		}

		o := defaultWriteOptions()
		for _, opt := range w.opts {
			opt(&o)
		}

		ms := w.ms
		if w.append {
			base, _ := current(w.set)
			ms = append(append([]model.SemanticMapping{}, base...), w.ms...)
		}
		final[w.set] = s.prepare(ms, o)
	}

	order := b.Sets()
	for _, set := range order {
		if err := CheckSchema(set, final[set]); err != nil {
			return err
		}
	}
	if err := s.checkCrossRedundancy(order, previous, final, current); err != nil {
		return err
	}

	staged := make(map[model.SetName]string, len(order))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, set := range order {
		tmp, err := stage(s.cfg.SetPath(set), s.header(set, final[set]), final[set])
		if err != nil {
			cleanup()
			return fmt.Errorf("stage %s set: %w", set, err)
		}
		staged[set] = tmp
	}

	for i, set := range order {
		if err := os.Rename(staged[set], s.cfg.SetPath(set)); err != nil {
			for _, rest := range order[i:] {
				_ = os.Remove(staged[rest])
			}
			return fmt.Errorf("replace %s set: %w", set, err)
		}
		s.logger.Debug("wrote mapping set", "set", set, "records", len(final[set]))
	}
	return nil
}

// checkCrossRedundancy rejects pairs newly written to a curated set while
// another curated set holds them after the batch
func (s *Store) checkCrossRedundancy(
	order []model.SetName,
	previous, final map[model.SetName][]model.SemanticMapping,
	current func(model.SetName) ([]model.SemanticMapping, error),
) error {
	for _, set := range order {
		if !set.IsCurated() {
			continue
		}
		before := canon.KeysOf(previous[set])

		for _, other := range model.CuratedSets {
			if other == set {
				continue
			}
			otherMs, err := current(other)
			if err != nil {
				return err
			}
			otherKeys := canon.KeysOf(otherMs)
			for _, m := range final[set] {
				k := canon.CanonicalKey(m)
				if !before.Has(k) && otherKeys.Has(k) {
					return fmt.Errorf("%w: %s is in the %s set, cannot add it to %s", ErrCrossRedundant, k, other, set)
				}
			}
		}
	}
	return nil
}
