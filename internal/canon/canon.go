// Package canon computes order-independent mapping identities and finds
// redundancy within and across mapping sets.
package canon

import (
	"slices"
	"sort"

	"github.com/ppiankov/biomap/internal/model"
)

// Key is the canonical identity of a mapping: the (subject, object) pair
// ordered by (prefix, identifier). The predicate is not part of it.
type Key struct {
	SourcePrefix string
	SourceID     string
	TargetPrefix string
	TargetID     string
}

// String renders the key as two CURIEs
func (k Key) String() string {
	return k.SourcePrefix + ":" + k.SourceID + " " + k.TargetPrefix + ":" + k.TargetID
}

// Pair returns the prefix pair of the key in canonical order
func (k Key) Pair() (string, string) {
	return k.SourcePrefix, k.TargetPrefix
}

// CanonicalKey returns the same key for (A, B) and (B, A)
func CanonicalKey(m model.SemanticMapping) Key {
	source, target := m.Subject, m.Object
	if model.CompareReferences(target, source) < 0 {
		source, target = target, source
	}
	return Key{
		SourcePrefix: source.Prefix,
		SourceID:     source.Identifier,
		TargetPrefix: target.Prefix,
		TargetID:     target.Identifier,
	}
}

// KeySet is a set of canonical keys
type KeySet map[Key]struct{}

// KeysOf collects the canonical keys of every mapping in the given sets
func KeysOf(sets ...[]model.SemanticMapping) KeySet {
	ks := KeySet{}
	for _, ms := range sets {
		for _, m := range ms {
			ks[CanonicalKey(m)] = struct{}{}
		}
	}
	return ks
}

// Has reports membership
func (ks KeySet) Has(k Key) bool {
	_, ok := ks[k]
	return ok
}

// Add inserts a key
func (ks KeySet) Add(k Key) {
	ks[k] = struct{}{}
}

// Scorer ranks duplicates; the highest score is kept
type Scorer func(model.SemanticMapping) int

// TrustedAuthorScorer scores 1 for mappings with an author from prefix, else 0
func TrustedAuthorScorer(prefix string) Scorer {
	return func(m model.SemanticMapping) int {
		for _, a := range m.Authors {
			if a.Prefix == prefix {
				return 1
			}
		}
		return 0
	}
}

// DefaultScorer prefers mappings curated by an ORCID-identified author
var DefaultScorer = TrustedAuthorScorer(model.AuthorPrefix)

// Deduplicate keeps one mapping per canonical key. Groups stay in the order
// of their first occurrence; within a group the highest score wins and ties
// go to the earliest record.
func Deduplicate(ms []model.SemanticMapping, scorer Scorer) []model.SemanticMapping {
	if scorer == nil {
		scorer = DefaultScorer
	}

	type choice struct {
		index int
		score int
	}

	var order []Key
	best := make(map[Key]choice, len(ms))
	for i, m := range ms {
		k := CanonicalKey(m)
		score := scorer(m)
		prev, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = choice{index: i, score: score}
			continue
		}
		if score > prev.score {
			best[k] = choice{index: i, score: score}
		}
	}

	out := make([]model.SemanticMapping, 0, len(order))
	for _, k := range order {
		out = append(out, ms[best[k].index])
	}
	return out
}

// Exclude drops mappings whose canonical key is in keys, preserving order
func Exclude(ms []model.SemanticMapping, keys KeySet) []model.SemanticMapping {
	if len(keys) == 0 {
		return ms
	}
	out := make([]model.SemanticMapping, 0, len(ms))
	for _, m := range ms {
		if !keys.Has(CanonicalKey(m)) {
			out = append(out, m)
		}
	}
	return out
}

// RemoveRedundantExternal drops mappings that are already present in any of
// the other sets
func RemoveRedundantExternal(ms []model.SemanticMapping, others ...[]model.SemanticMapping) []model.SemanticMapping {
	return Exclude(ms, KeysOf(others...))
}

// LabeledSet names a mapping set for redundancy reports
type LabeledSet struct {
	Label    string
	Mappings []model.SemanticMapping
}

// FindCrossRedundant reports every key that occurs in more than one labeled
// set, with its positions in each set.
func FindCrossRedundant(sets ...LabeledSet) map[Key]map[string][]int {
	seen := map[Key]map[string][]int{}
	for _, s := range sets {
		for i, m := range s.Mappings {
			k := CanonicalKey(m)
			if seen[k] == nil {
				seen[k] = map[string][]int{}
			}
			seen[k][s.Label] = append(seen[k][s.Label], i)
		}
	}

	out := map[Key]map[string][]int{}
	for k, labels := range seen {
		if len(labels) > 1 {
			out[k] = labels
		}
	}
	return out
}

// Violation is a key that occurs more than once within one set
type Violation struct {
	Key       Key
	Positions []int
}

// AssertNoInternalRedundancy lists duplicated keys ordered by first position.
// An empty result means the set is internally deduplicated.
func AssertNoInternalRedundancy(ms []model.SemanticMapping) []Violation {
	positions := map[Key][]int{}
	for i, m := range ms {
		k := CanonicalKey(m)
		positions[k] = append(positions[k], i)
	}

	var out []Violation
	for k, pos := range positions {
		if len(pos) > 1 {
			out = append(out, Violation{Key: k, Positions: pos})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Positions[0] < out[j].Positions[0]
	})
	return out
}

// Sort orders a set in place by the canonical sort key
func Sort(ms []model.SemanticMapping) {
	slices.SortStableFunc(ms, model.Compare)
}

// Sorted returns a sorted copy
func Sorted(ms []model.SemanticMapping) []model.SemanticMapping {
	out := slices.Clone(ms)
	Sort(out)
	return out
}

// IsSorted reports whether the set is in canonical order
func IsSorted(ms []model.SemanticMapping) bool {
	return FirstUnsorted(ms) < 0
}

// FirstUnsorted returns the first position that sorts before its
// predecessor, or -1
func FirstUnsorted(ms []model.SemanticMapping) int {
	for i := 1; i < len(ms); i++ {
		if model.Compare(ms[i-1], ms[i]) > 0 {
			return i
		}
	}
	return -1
}

// Canonicalize applies the write-path normalization: deduplicate, then sort
func Canonicalize(ms []model.SemanticMapping, scorer Scorer) []model.SemanticMapping {
	out := Deduplicate(ms, scorer)
	Sort(out)
	return out
}
