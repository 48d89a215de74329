package canon

import (
	"testing"

	"github.com/ppiankov/biomap/internal/model"
)

func mapping(subject, object string) model.SemanticMapping {
	return model.SemanticMapping{
		Subject:       model.MustParseCURIE(subject),
		Predicate:     model.ExactMatch,
		Object:        model.MustParseCURIE(object),
		Justification: model.LexicalMatching,
		Confidence:    model.Confidence(0.5),
		MappingTool:   "test",
	}
}

func TestCanonicalKey_Symmetric(t *testing.T) {
	a := CanonicalKey(mapping("mesh:D001", "doid:0001"))
	b := CanonicalKey(mapping("doid:0001", "mesh:D001"))
	if a != b {
		t.Errorf("expected equal keys, got %v and %v", a, b)
	}
	if a.SourcePrefix != "doid" || a.TargetPrefix != "mesh" {
		t.Errorf("expected doid before mesh, got %v", a)
	}
}

func TestCanonicalKey_SelfMapping(t *testing.T) {
	k := CanonicalKey(mapping("doid:0001", "doid:0001"))
	if k.SourceID != "0001" || k.TargetID != "0001" {
		t.Errorf("unexpected self-mapping key: %v", k)
	}

	out := Deduplicate([]model.SemanticMapping{mapping("doid:0001", "doid:0001")}, nil)
	if len(out) != 1 {
		t.Errorf("expected self-mapping to survive, got %d", len(out))
	}
}

func TestDeduplicate_ReversedPair(t *testing.T) {
	ms := []model.SemanticMapping{
		mapping("mesh:D001", "doid:0001"),
		mapping("doid:0001", "mesh:D001"),
	}

	out := Deduplicate(ms, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].Subject.Prefix != "mesh" {
		t.Errorf("expected earliest record to win the tie, got %s", out[0])
	}
}

func TestDeduplicate_TrustedAuthorWins(t *testing.T) {
	plain := mapping("mesh:D001", "doid:0001")
	plain.Authors = []model.Reference{model.MustParseCURIE("wikidata:Q1")}
	trusted := mapping("doid:0001", "mesh:D001")
	trusted.Authors = []model.Reference{model.MustParseCURIE("orcid:0000-0003-4423-4370")}

	out := Deduplicate([]model.SemanticMapping{plain, trusted}, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].Subject.Prefix != "doid" {
		t.Errorf("expected ORCID-authored record, got %s", out[0])
	}
}

func TestDeduplicate_PreservesGroupOrder(t *testing.T) {
	ms := []model.SemanticMapping{
		mapping("mesh:D003", "doid:0003"),
		mapping("mesh:D001", "doid:0001"),
		mapping("doid:0003", "mesh:D003"),
		mapping("mesh:D002", "doid:0002"),
	}

	out := Deduplicate(ms, nil)
	want := []string{"mesh:D003", "mesh:D001", "mesh:D002"}
	if len(out) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(out))
	}
	for i, w := range want {
		if out[i].Subject.CURIE() != w {
			t.Errorf("position %d: expected %s, got %s", i, w, out[i].Subject.CURIE())
		}
	}
}

func TestFindCrossRedundant(t *testing.T) {
	positive := []model.SemanticMapping{mapping("mesh:D001", "doid:0001"), mapping("mesh:D002", "doid:0002")}
	negative := []model.SemanticMapping{mapping("doid:0001", "mesh:D001")}
	unsure := []model.SemanticMapping{mapping("mesh:D009", "doid:0009")}

	got := FindCrossRedundant(
		LabeledSet{Label: "positive", Mappings: positive},
		LabeledSet{Label: "negative", Mappings: negative},
		LabeledSet{Label: "unsure", Mappings: unsure},
	)
	if len(got) != 1 {
		t.Fatalf("expected 1 redundant key, got %d", len(got))
	}
	labels := got[CanonicalKey(positive[0])]
	if len(labels["positive"]) != 1 || labels["positive"][0] != 0 {
		t.Errorf("unexpected positive positions: %v", labels["positive"])
	}
	if len(labels["negative"]) != 1 || labels["negative"][0] != 0 {
		t.Errorf("unexpected negative positions: %v", labels["negative"])
	}
}

func TestAssertNoInternalRedundancy(t *testing.T) {
	clean := []model.SemanticMapping{mapping("mesh:D001", "doid:0001"), mapping("mesh:D002", "doid:0002")}
	if v := AssertNoInternalRedundancy(clean); len(v) != 0 {
		t.Errorf("expected no violations, got %v", v)
	}

	dirty := append(clean, mapping("doid:0002", "mesh:D002"))
	v := AssertNoInternalRedundancy(dirty)
	if len(v) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(v))
	}
	if len(v[0].Positions) != 2 || v[0].Positions[0] != 1 || v[0].Positions[1] != 2 {
		t.Errorf("unexpected positions: %v", v[0].Positions)
	}
}

func TestRemoveRedundantExternal(t *testing.T) {
	predicted := []model.SemanticMapping{mapping("mesh:D001", "doid:0001"), mapping("mesh:D002", "doid:0002")}
	positive := []model.SemanticMapping{mapping("doid:0001", "mesh:D001")}

	out := RemoveRedundantExternal(predicted, positive)
	if len(out) != 1 || out[0].Subject.CURIE() != "mesh:D002" {
		t.Errorf("expected only mesh:D002 to remain, got %v", out)
	}
}

func TestSort(t *testing.T) {
	ms := []model.SemanticMapping{
		mapping("mesh:D002", "doid:0002"),
		mapping("mesh:D001", "doid:0009"),
		mapping("mesh:D001", "doid:0001"),
	}
	if IsSorted(ms) {
		t.Fatal("expected unsorted input")
	}
	if FirstUnsorted(ms) != 1 {
		t.Errorf("expected first unsorted at 1, got %d", FirstUnsorted(ms))
	}

	sorted := Sorted(ms)
	if !IsSorted(sorted) {
		t.Error("expected sorted output")
	}
	if sorted[0].Object.CURIE() != "doid:0001" {
		t.Errorf("expected doid:0001 first, got %s", sorted[0].Object.CURIE())
	}
	if ms[0].Subject.CURIE() != "mesh:D002" {
		t.Error("Sorted should not modify its input")
	}
}
