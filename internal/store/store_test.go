package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/biomap/internal/canon"
	"github.com/ppiankov/biomap/internal/model"
)

var testAuthor = model.Reference{Prefix: "orcid", Identifier: "0000-0003-4423-4370", Name: "Test Curator"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := model.DefaultConfig().Repository
	cfg.Dir = t.TempDir()
	return New(cfg)
}

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

func curated(subject, object string) model.SemanticMapping {
	return model.SemanticMapping{
		Subject:       model.MustParseCURIE(subject),
		Predicate:     model.ExactMatch,
		Object:        model.MustParseCURIE(object),
		Justification: model.ManualMappingCuration,
		Authors:       []model.Reference{testAuthor.WithName("")},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	m := curated("mesh:D001", "doid:0001")
	m.Subject.Name = "Calcimycin"
	m.Object.Name = `disease "quoted"`
	m.PredicateModifier = model.ModifierNot
	m.Authors = append(m.Authors, model.MustParseCURIE("orcid:0000-0000-0000-0001"))
	p := prediction("chebi:1", "mesh:D002", 0.875)

	h := Header{
		MappingSetID: "https://w3id.org/biomappings/positive.sssom.tsv",
		License:      "CC0",
		CURIEMap:     map[string]string{"doid": "http://purl.obolibrary.org/obo/DOID_"},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, h, []model.SemanticMapping{m, p}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "#") {
		t.Errorf("expected metadata comment block, got %q", buf.String()[:20])
	}

	gotHeader, ms, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if gotHeader.MappingSetID != h.MappingSetID || gotHeader.CURIEMap["doid"] != h.CURIEMap["doid"] {
		t.Errorf("unexpected header: %+v", gotHeader)
	}
	if len(ms) != 2 {
		t.Fatalf("expected 2 records, got %d", len(ms))
	}
	if model.Compare(ms[0], m) != 0 {
		t.Errorf("expected %+v, got %+v", m, ms[0])
	}
	if ms[0].Object.Name != `disease "quoted"` {
		t.Errorf("expected quoted label to survive, got %q", ms[0].Object.Name)
	}
	if len(ms[0].Authors) != 2 {
		t.Errorf("expected 2 authors, got %d", len(ms[0].Authors))
	}
	if ms[1].Confidence == nil || *ms[1].Confidence != 0.875 {
		t.Errorf("expected confidence 0.875, got %v", ms[1].Confidence)
	}
}

func TestEncodeDecode_LabelWhitespaceKept(t *testing.T) {
	m := curated("mesh:D001", "doid:0001")
	m.Subject.Name = "  leading"
	m.Object.Name = "trailing  "

	var buf bytes.Buffer
	if err := Encode(&buf, Header{}, []model.SemanticMapping{m}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	_, ms, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(ms) != 1 {
		t.Fatalf("expected 1 record, got %d", len(ms))
	}
	if ms[0].Subject.Name != "  leading" || ms[0].Object.Name != "trailing  " {
		t.Errorf("expected labels verbatim, got %q and %q", ms[0].Subject.Name, ms[0].Object.Name)
	}
}

func TestDecode_ColumnsByName(t *testing.T) {
	in := "object_id\tsubject_id\tpredicate_id\tmapping_justification\tconfidence\n" +
		"doid:0001\tmesh:D001\tskos:exactMatch\tsemapv:LexicalMatching\t0.5\n"

	_, ms, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(ms) != 1 || ms[0].Subject.CURIE() != "mesh:D001" || ms[0].Object.CURIE() != "doid:0001" {
		t.Errorf("unexpected records: %v", ms)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, _, err := Decode(strings.NewReader("subject_id\tobject_id\n")); err == nil {
		t.Error("expected error for missing required columns")
	}

	in := "#license: x\nsubject_id\tpredicate_id\tobject_id\tmapping_justification\n" +
		"mesh:D001\tskos:exactMatch\tdoid:0001\tsemapv:LexicalMatching\n" +
		"broken\tskos:exactMatch\tdoid:0002\tsemapv:LexicalMatching\n"
	_, _, err := Decode(strings.NewReader(in))
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowError, got %v", err)
	}
	if rowErr.Line != 4 {
		t.Errorf("expected line 4, got %d", rowErr.Line)
	}
	if !errors.Is(err, model.ErrInvalidCURIE) {
		t.Errorf("expected ErrInvalidCURIE, got %v", err)
	}
}

func TestRead_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	ms, err := s.Read(model.SetPositive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms) != 0 {
		t.Errorf("expected empty set, got %d", len(ms))
	}

	if _, err := s.Read("bogus"); !errors.Is(err, model.ErrUnknownSet) {
		t.Errorf("expected ErrUnknownSet, got %v", err)
	}
}

func TestWrite_SortsAndDeduplicates(t *testing.T) {
	s := newTestStore(t)
	in := []model.SemanticMapping{
		prediction("mesh:D002", "doid:0002", 0.5),
		prediction("mesh:D001", "doid:0001", 0.9),
		prediction("doid:0002", "mesh:D002", 0.7),
	}

	if err := s.Write(model.SetPredicted, in); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ms, err := s.Read(model.SetPredicted)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 2 {
		t.Fatalf("expected 2 records after dedup, got %d", len(ms))
	}
	if !canon.IsSorted(ms) {
		t.Error("expected sorted set")
	}
	if ms[0].Subject.CURIE() != "mesh:D001" {
		t.Errorf("expected mesh:D001 first, got %s", ms[0].Subject.CURIE())
	}

	// Writing is a fixed point of sorting
	if err := s.Write(model.SetPredicted, ms); err != nil {
		t.Fatal(err)
	}
	again, _ := s.Read(model.SetPredicted)
	for i := range ms {
		if model.Compare(ms[i], again[i]) != 0 {
			t.Errorf("record %d changed on rewrite", i)
		}
	}
}

func TestWrite_WithoutSortAndDedup(t *testing.T) {
	s := newTestStore(t)
	in := []model.SemanticMapping{
		prediction("mesh:D002", "doid:0002", 0.5),
		prediction("doid:0002", "mesh:D002", 0.7),
	}

	if err := s.Write(model.SetPredicted, in, WithoutSort(), WithoutDedup()); err != nil {
		t.Fatal(err)
	}
	ms, _ := s.Read(model.SetPredicted)
	if len(ms) != 2 || ms[0].Subject.CURIE() != "mesh:D002" {
		t.Errorf("expected input order preserved, got %v", ms)
	}
}

func TestWrite_SchemaViolationWritesNothing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(model.SetPositive, []model.SemanticMapping{curated("mesh:D001", "doid:0001")}); err != nil {
		t.Fatal(err)
	}
	path, _ := s.Path(model.SetPositive)
	before, _ := os.ReadFile(path)

	noAuthor := curated("mesh:D002", "doid:0002")
	noAuthor.Authors = nil
	err := s.Append(model.SetPositive, []model.SemanticMapping{noAuthor})

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) || schemaErr.Field != "author_id" {
		t.Fatalf("expected author_id schema error, got %v", err)
	}
	if !errors.Is(err, ErrSchema) {
		t.Error("expected error to wrap ErrSchema")
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("expected file to be unchanged after schema violation")
	}
}

func TestCheckRecord(t *testing.T) {
	manual := prediction("mesh:D001", "doid:0001", 0.5)
	manual.Justification = model.ManualMappingCuration

	withConfidence := curated("mesh:D001", "doid:0001")
	withConfidence.Confidence = model.Confidence(0.5)

	noTool := prediction("mesh:D001", "doid:0001", 0.5)
	noTool.MappingTool = ""

	tests := []struct {
		name  string
		set   model.SetName
		m     model.SemanticMapping
		field string
	}{
		{"manual prediction", model.SetPredicted, manual, "mapping_justification"},
		{"curated with confidence", model.SetNegative, withConfidence, "confidence"},
		{"prediction without tool", model.SetPredicted, noTool, "mapping_tool"},
		{"prediction with author", model.SetPredicted, curated("mesh:D1", "doid:1"), "confidence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRecord(tt.set, 0, tt.m)
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected schema error, got %v", err)
			}
			if schemaErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, schemaErr.Field)
			}
		})
	}

	if err := CheckRecord(model.SetPredicted, 0, prediction("mesh:D001", "doid:0001", 0.1)); err != nil {
		t.Errorf("expected valid prediction, got %v", err)
	}
}

func TestAppendPredictions_ExcludesCurated(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(model.SetPositive, []model.SemanticMapping{curated("mesh:D001", "doid:0001")}); err != nil {
		t.Fatal(err)
	}

	err := s.AppendPredictions([]model.SemanticMapping{
		prediction("doid:0001", "mesh:D001", 0.9),
		prediction("mesh:D002", "doid:0002", 0.6),
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	ms, _ := s.Read(model.SetPredicted)
	if len(ms) != 1 || ms[0].Subject.CURIE() != "mesh:D002" {
		t.Errorf("expected only mesh:D002 predicted, got %v", ms)
	}
}

func TestApply_CrossRedundant(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(model.SetPositive, []model.SemanticMapping{curated("mesh:D001", "doid:0001")}); err != nil {
		t.Fatal(err)
	}

	err := s.Append(model.SetNegative, []model.SemanticMapping{curated("doid:0001", "mesh:D001")})
	if !errors.Is(err, ErrCrossRedundant) {
		t.Fatalf("expected ErrCrossRedundant, got %v", err)
	}
	ms, _ := s.Read(model.SetNegative)
	if len(ms) != 0 {
		t.Errorf("expected negative set untouched, got %v", ms)
	}
}

func TestApply_StagingFailureReplacesNothing(t *testing.T) {
	cfg := model.DefaultConfig().Repository
	cfg.Dir = t.TempDir()

	blocker := filepath.Join(cfg.Dir, "blocked")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Predicted = filepath.Join(blocker, "predictions.sssom.tsv")
	s := New(cfg)

	b := NewBatch()
	b.Append(model.SetPositive, []model.SemanticMapping{curated("mesh:D001", "doid:0001")})
	b.Write(model.SetPredicted, nil)
	if err := s.Apply(b); err == nil {
		t.Fatal("expected staging error")
	}

	ms, err := s.Read(model.SetPositive)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 0 {
		t.Errorf("expected positive set not to be written, got %v", ms)
	}

	entries, _ := os.ReadDir(cfg.Dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("expected staged file %s to be cleaned up", e.Name())
		}
	}
}

func TestLint(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(model.SetPositive, []model.SemanticMapping{curated("mesh:D001", "doid:0001")}); err != nil {
		t.Fatal(err)
	}
	// Bypass the write path to leave an already-curated pair in the predicted set
	path, _ := s.Path(model.SetPredicted)
	bad := []model.SemanticMapping{
		prediction("mesh:D003", "doid:0003", 0.2),
		prediction("mesh:D001", "doid:0001", 0.9),
	}
	if err := WriteFile(path, Header{}, bad); err != nil {
		t.Fatal(err)
	}

	if err := s.Lint(); err != nil {
		t.Fatalf("lint failed: %v", err)
	}
	ms, _ := s.Read(model.SetPredicted)
	if len(ms) != 1 || ms[0].Subject.CURIE() != "mesh:D003" {
		t.Errorf("expected only mesh:D003 after lint, got %v", ms)
	}
}

func TestHeader(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(model.SetPositive, []model.SemanticMapping{curated("mesh:D001", "doid:0001")}); err != nil {
		t.Fatal(err)
	}
	path, _ := s.Path(model.SetPositive)
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	h, _, err := Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if h.MappingSetID != "https://w3id.org/biomappings/positive.sssom.tsv" {
		t.Errorf("unexpected mapping_set_id: %s", h.MappingSetID)
	}
	for _, p := range []string{"mesh", "doid", "skos", "semapv", "orcid"} {
		if h.CURIEMap[p] == "" {
			t.Errorf("expected %s in curie_map", p)
		}
	}
}

func TestCurators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curators.tsv")
	content := "user\torcid\tname\ncthoyt\t0000-0003-4423-4370\tCharles Tapley Hoyt\nother\t0000-0000-0000-0001\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	curators, err := LoadCurators(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(curators) != 2 {
		t.Fatalf("expected 2 curators, got %d", len(curators))
	}

	ref, err := CurrentCurator(path, "cthoyt")
	if err != nil {
		t.Fatal(err)
	}
	if ref.CURIE() != "orcid:0000-0003-4423-4370" || ref.Name != "Charles Tapley Hoyt" {
		t.Errorf("unexpected curator reference: %+v", ref)
	}

	if _, err := CurrentCurator(path, "nobody"); !errors.Is(err, ErrMissingCurator) {
		t.Errorf("expected ErrMissingCurator, got %v", err)
	}
}
