package curate

import (
	"errors"
	"slices"
	"testing"

	"github.com/ppiankov/biomap/internal/canon"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/store"
)

var curator = model.Reference{Prefix: "orcid", Identifier: "0000-0003-4423-4370", Name: "Test Curator"}

func prediction(subject, object string, confidence float64) model.SemanticMapping {
	return model.SemanticMapping{
		Subject:       model.MustParseCURIE(subject),
		Predicate:     model.ExactMatch,
		Object:        model.MustParseCURIE(object),
		Justification: model.LexicalMatching,
		Confidence:    model.Confidence(confidence),
		MappingTool:   "generate_test_predictions",
	}
}

func named(m model.SemanticMapping, subject, object string) model.SemanticMapping {
	m.Subject.Name = subject
	m.Object.Name = object
	return m
}

func newStore(t *testing.T, predicted ...model.SemanticMapping) *store.Store {
	t.Helper()
	cfg := model.DefaultConfig().Repository
	cfg.Dir = t.TempDir()
	s := store.New(cfg)
	if len(predicted) > 0 {
		if err := s.Write(model.SetPredicted, predicted); err != nil {
			t.Fatalf("seed predictions: %v", err)
		}
	}
	return s
}

func newController(t *testing.T, s Store, opts ...Option) *Controller {
	t.Helper()
	c, err := New(s, curator, opts...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func read(t *testing.T, s *store.Store, set model.SetName) []model.SemanticMapping {
	t.Helper()
	ms, err := s.Read(set)
	if err != nil {
		t.Fatalf("read %s: %v", set, err)
	}
	return ms
}

func positions(t *testing.T, c *Controller, q Query) []int {
	t.Helper()
	seq, err := c.Predictions(q)
	if err != nil {
		t.Fatalf("predictions: %v", err)
	}
	var out []int
	for pos := range seq {
		out = append(out, pos)
	}
	return out
}

func TestPersist_Correct(t *testing.T) {
	s := newStore(t, prediction("mesh:D001", "doid:0001", 0.9))
	c := newController(t, s)

	if err := c.Mark(0, model.Correct); err != nil {
		t.Fatal(err)
	}
	if err := c.Persist(); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	if got := read(t, s, model.SetPredicted); len(got) != 0 {
		t.Errorf("expected empty predicted set, got %v", got)
	}
	positive := read(t, s, model.SetPositive)
	if len(positive) != 1 {
		t.Fatalf("expected 1 positive record, got %d", len(positive))
	}
	m := positive[0]
	if m.Subject.CURIE() != "mesh:D001" || m.Object.CURIE() != "doid:0001" {
		t.Errorf("unexpected pair: %s", m)
	}
	if !m.Predicate.Equal(model.ExactMatch) {
		t.Errorf("expected exactMatch, got %s", m.Predicate)
	}
	if m.Confidence != nil {
		t.Errorf("expected confidence to be cleared, got %v", *m.Confidence)
	}
	if len(m.Authors) != 1 || !m.Authors[0].Equal(curator) {
		t.Errorf("expected current user as author, got %v", m.Authors)
	}
	if !m.Justification.Equal(model.ManualMappingCuration) {
		t.Errorf("expected manual curation, got %s", m.Justification)
	}
	if c.TotalPredictions() != 0 {
		t.Errorf("expected no predictions left in session, got %d", c.TotalPredictions())
	}
}

func TestPersist_Incorrect(t *testing.T) {
	s := newStore(t, prediction("mesh:D001", "doid:0001", 0.9))
	c := newController(t, s)

	if err := c.Mark(0, model.Incorrect); err != nil {
		t.Fatal(err)
	}
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}

	negative := read(t, s, model.SetNegative)
	if len(negative) != 1 {
		t.Fatalf("expected 1 negative record, got %d", len(negative))
	}
	if negative[0].PredicateModifier != model.ModifierNot {
		t.Errorf("expected Not modifier, got %q", negative[0].PredicateModifier)
	}
	if !negative[0].Predicate.Equal(model.ExactMatch) {
		t.Errorf("expected predicate unchanged, got %s", negative[0].Predicate)
	}
	if len(read(t, s, model.SetPositive)) != 0 || len(read(t, s, model.SetUnsure)) != 0 {
		t.Error("expected positive and unsure sets untouched")
	}
}

func TestPersist_BroadAndNarrowInvert(t *testing.T) {
	s := newStore(t,
		prediction("mesh:D001", "doid:0001", 0.9),
		prediction("mesh:D002", "doid:0002", 0.8),
	)
	c := newController(t, s)

	if err := c.Mark(0, model.Broad); err != nil {
		t.Fatal(err)
	}
	if err := c.Mark(1, model.Narrow); err != nil {
		t.Fatal(err)
	}
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}

	positive := read(t, s, model.SetPositive)
	if len(positive) != 2 {
		t.Fatalf("expected 2 positive records, got %d", len(positive))
	}
	if !positive[0].Predicate.Equal(model.NarrowMatch) {
		t.Errorf("broad mark should store narrowMatch, got %s", positive[0].Predicate)
	}
	if !positive[1].Predicate.Equal(model.BroadMatch) {
		t.Errorf("narrow mark should store broadMatch, got %s", positive[1].Predicate)
	}
}

func TestPersist_NoMarksIsNoop(t *testing.T) {
	c := newController(t, &failingStore{Store: newStore(t, prediction("mesh:D001", "doid:0001", 0.9))})
	if err := c.Persist(); err != nil {
		t.Errorf("expected no-op persist, got %v", err)
	}
}

func TestPersist_SetExclusivity(t *testing.T) {
	s := newStore(t,
		prediction("mesh:D001", "doid:0001", 0.9),
		prediction("mesh:D002", "doid:0002", 0.8),
		prediction("mesh:D003", "doid:0003", 0.7),
		prediction("mesh:D004", "doid:0004", 0.6),
		prediction("mesh:D005", "doid:0005", 0.5),
	)
	c := newController(t, s)

	dispositions := []model.Disposition{model.Correct, model.Incorrect, model.Unsure}
	for i, d := range dispositions {
		if err := c.Mark(i, d); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}
	if err := c.Mark(1, model.Incorrect); err != nil {
		t.Fatal(err)
	}
	if err := c.AddMapping(model.MustParseCURIE("chebi:1"), model.MustParseCURIE("mesh:D009")); err != nil {
		t.Fatal(err)
	}
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}

	snap := map[model.SetName][]model.SemanticMapping{}
	for _, set := range model.AllSets {
		snap[set] = read(t, s, set)
	}

	redundant := canon.FindCrossRedundant(
		canon.LabeledSet{Label: "positive", Mappings: snap[model.SetPositive]},
		canon.LabeledSet{Label: "negative", Mappings: snap[model.SetNegative]},
		canon.LabeledSet{Label: "unsure", Mappings: snap[model.SetUnsure]},
		canon.LabeledSet{Label: "predicted", Mappings: snap[model.SetPredicted]},
	)
	if len(redundant) != 0 {
		t.Errorf("expected no cross-set redundancy, got %v", redundant)
	}

	if len(snap[model.SetPositive]) != 2 || len(snap[model.SetNegative]) != 2 || len(snap[model.SetUnsure]) != 1 {
		t.Errorf("unexpected set sizes: positive=%d negative=%d unsure=%d",
			len(snap[model.SetPositive]), len(snap[model.SetNegative]), len(snap[model.SetUnsure]))
	}
	if len(snap[model.SetPredicted]) != 1 || snap[model.SetPredicted][0].Subject.CURIE() != "mesh:D004" {
		t.Errorf("expected mesh:D004 left in predicted, got %v", snap[model.SetPredicted])
	}

	for _, set := range model.CuratedSets {
		for _, m := range snap[set] {
			if m.Confidence != nil {
				t.Errorf("%s record %s kept its confidence", set, m)
			}
		}
	}
	for _, m := range snap[model.SetPredicted] {
		if m.Confidence == nil {
			t.Errorf("predicted record %s lost its confidence", m)
		}
	}
	if c.TotalCurated() != 5 {
		t.Errorf("expected 5 curated in session, got %d", c.TotalCurated())
	}
}

func TestMark_OutOfRange(t *testing.T) {
	c := newController(t, newStore(t, prediction("mesh:D001", "doid:0001", 0.9)))

	for _, pos := range []int{-1, 1, 5} {
		if err := c.Mark(pos, model.Correct); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("position %d: expected ErrOutOfRange, got %v", pos, err)
		}
	}
	if marks, _ := c.Pending(); marks != 0 {
		t.Errorf("expected no marks after failures, got %d", marks)
	}
	if err := c.Mark(0, "sideways"); !errors.Is(err, model.ErrInvalidDisposition) {
		t.Errorf("expected ErrInvalidDisposition, got %v", err)
	}
}

func TestMark_RemarkDoesNotDoubleCount(t *testing.T) {
	c := newController(t, newStore(t, prediction("mesh:D001", "doid:0001", 0.9)))

	_ = c.Mark(0, model.Correct)
	_ = c.Mark(0, model.Unsure)
	if c.TotalCurated() != 1 {
		t.Errorf("expected 1 curated, got %d", c.TotalCurated())
	}
	if c.Marks()[0] != model.Unsure {
		t.Errorf("expected latest disposition to win, got %s", c.Marks()[0])
	}
}

type failingStore struct {
	*store.Store
	applied int
}

func (f *failingStore) Apply(*store.Batch) error {
	f.applied++
	return errors.New("disk full")
}

func TestPersist_FailureLeavesStateUnchanged(t *testing.T) {
	s := newStore(t,
		prediction("mesh:D001", "doid:0001", 0.9),
		prediction("mesh:D002", "doid:0002", 0.8),
	)
	fs := &failingStore{Store: s}
	c := newController(t, fs)

	_ = c.Mark(0, model.Correct)
	if err := c.Persist(); err == nil {
		t.Fatal("expected persist to fail")
	}
	if fs.applied != 1 {
		t.Errorf("expected one batch attempt, got %d", fs.applied)
	}
	if marks, _ := c.Pending(); marks != 1 {
		t.Errorf("expected mark to survive failed persist, got %d", marks)
	}
	if c.TotalPredictions() != 1 {
		t.Errorf("expected 1 unmarked prediction, got %d", c.TotalPredictions())
	}
	if got := read(t, s, model.SetPredicted); len(got) != 2 {
		t.Errorf("expected predicted file untouched, got %d records", len(got))
	}
}

func TestAddMapping(t *testing.T) {
	s := newStore(t, prediction("mesh:D001", "doid:0001", 0.9))
	c := newController(t, s)

	if err := c.AddMapping(model.MustParseCURIE("MESH:D002"), model.MustParseCURIE("DOID:DOID:0002")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := c.AddMapping(model.MustParseCURIE("doid:0002"), model.MustParseCURIE("mesh:D002")); !errors.Is(err, ErrAlreadyCurated) {
		t.Errorf("expected ErrAlreadyCurated for queued pair, got %v", err)
	}
	if err := c.AddMapping(model.MustParseCURIE("nope:1"), model.MustParseCURIE("mesh:D003")); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}

	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}
	positive := read(t, s, model.SetPositive)
	if len(positive) != 1 || positive[0].Subject.CURIE() != "mesh:D002" || positive[0].Object.CURIE() != "doid:0002" {
		t.Errorf("unexpected positive set: %v", positive)
	}
	if len(read(t, s, model.SetPredicted)) != 1 {
		t.Error("expected the predicted set to keep its record")
	}

	if err := c.AddMapping(model.MustParseCURIE("mesh:D002"), model.MustParseCURIE("doid:0002")); !errors.Is(err, ErrAlreadyCurated) {
		t.Errorf("expected ErrAlreadyCurated for persisted pair, got %v", err)
	}
}

func TestAddMapping_RemovesPredictedPair(t *testing.T) {
	s := newStore(t, prediction("mesh:D001", "doid:0001", 0.9))
	c := newController(t, s)

	if err := c.AddMapping(model.MustParseCURIE("doid:0001"), model.MustParseCURIE("mesh:D001")); err != nil {
		t.Fatal(err)
	}
	if err := c.Persist(); err != nil {
		t.Fatal(err)
	}
	if got := read(t, s, model.SetPredicted); len(got) != 0 {
		t.Errorf("expected predicted pair to be dropped, got %v", got)
	}
}

func TestAddMapping_RejectsMarkedPair(t *testing.T) {
	s := newStore(t,
		prediction("mesh:D001", "doid:0001", 0.9),
		prediction("mesh:D002", "doid:0002", 0.8),
	)
	c := newController(t, s)

	if err := c.Mark(0, model.Incorrect); err != nil {
		t.Fatal(err)
	}
	if err := c.AddMapping(model.MustParseCURIE("mesh:D001"), model.MustParseCURIE("doid:0001")); !errors.Is(err, ErrAlreadyCurated) {
		t.Fatalf("expected ErrAlreadyCurated for a marked pair, got %v", err)
	}
	if _, added := c.Pending(); added != 0 {
		t.Errorf("expected no pending additions, got %d", added)
	}

	if err := c.Mark(1, model.Correct); err != nil {
		t.Fatal(err)
	}
	if err := c.Persist(); err != nil {
		t.Fatalf("persist after rejected addition: %v", err)
	}
	if got := read(t, s, model.SetNegative); len(got) != 1 {
		t.Errorf("expected 1 negative mapping, got %d", len(got))
	}
	if got := read(t, s, model.SetPositive); len(got) != 1 {
		t.Errorf("expected 1 positive mapping, got %d", len(got))
	}
}

func TestPredictions_Filters(t *testing.T) {
	s := newStore(t,
		named(prediction("mesh:D001", "doid:0001", 0.9), "Asthma", "asthma"),
		named(prediction("mesh:D002", "doid:0002", 0.2), "Flu", "influenza"),
		named(prediction("chebi:1", "mesh:D003", 0.5), "Caffeine", "Coffee"),
	)
	c := newController(t, s)

	tests := []struct {
		name string
		q    Query
		want []int
	}{
		{"all", Query{}, []int{0, 1, 2}},
		{"query matches name", Query{Query: "INFLU"}, []int{2}},
		{"query matches tool", Query{Query: "generate_test"}, []int{0, 1, 2}},
		{"source prefix", Query{SourcePrefix: "chebi"}, []int{0}},
		{"target prefix", Query{TargetPrefix: "doid"}, []int{1, 2}},
		{"source query", Query{SourceQuery: "d002"}, []int{2}},
		{"target query", Query{TargetQuery: "coffee"}, []int{0}},
		{"prefix", Query{Prefix: "chebi"}, []int{0}},
		{"provenance", Query{Provenance: "nothing"}, nil},
		{"same text", Query{SameText: true}, []int{1}},
		{"desc", Query{Sort: SortDescending}, []int{1, 0, 2}},
		{"asc", Query{Sort: SortAscending}, []int{2, 0, 1}},
		{"object", Query{Sort: SortObject}, []int{1, 2, 0}},
		{"offset and limit after sort", Query{Sort: SortDescending, Offset: 1, Limit: 1}, []int{0}},
		{"offset past end", Query{Offset: 10}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := positions(t, c, tt.q)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPredictions_SkipsMarkedAndRestarts(t *testing.T) {
	c := newController(t, newStore(t,
		prediction("mesh:D001", "doid:0001", 0.9),
		prediction("mesh:D002", "doid:0002", 0.8),
	))

	seq, err := c.Predictions(Query{})
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Mark(0, model.Correct)

	for i := 0; i < 2; i++ {
		var got []int
		for pos := range seq {
			got = append(got, pos)
		}
		if !slices.Equal(got, []int{1}) {
			t.Errorf("pass %d: expected [1], got %v", i, got)
		}
	}

	n, _ := c.CountPredictions(Query{})
	if n != 1 {
		t.Errorf("expected 1 counted prediction, got %d", n)
	}
}

func TestPredictions_UnknownSort(t *testing.T) {
	c := newController(t, newStore(t))
	if _, err := c.Predictions(Query{Sort: "sideways"}); !errors.Is(err, ErrUnknownSort) {
		t.Errorf("expected ErrUnknownSort, got %v", err)
	}
	if _, err := c.CountPredictions(Query{Sort: "sideways"}); !errors.Is(err, ErrUnknownSort) {
		t.Errorf("expected ErrUnknownSort from count, got %v", err)
	}
}

func TestTargetReferences(t *testing.T) {
	c := newController(t, newStore(t,
		prediction("mesh:D001", "doid:0001", 0.9),
		prediction("mesh:D002", "doid:0002", 0.8),
	), WithTargetReferences([]model.Reference{model.MustParseCURIE("doid:0002")}))

	if got := positions(t, c, Query{}); !slices.Equal(got, []int{1}) {
		t.Errorf("expected only position 1, got %v", got)
	}
}

func TestPrefixPairCounts(t *testing.T) {
	c := newController(t, newStore(t,
		prediction("mesh:D001", "doid:0001", 0.9),
		prediction("mesh:D002", "doid:0002", 0.8),
		prediction("chebi:1", "mesh:D003", 0.5),
	))

	counts, err := c.PrefixPairCounts(Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(counts))
	}
	if counts[0] != (PairCount{Source: "mesh", Target: "doid", Count: 2}) {
		t.Errorf("unexpected top pair: %+v", counts[0])
	}
}
