package curate

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/biomap/internal/model"
)

// Sort modes accepted by Query.Sort
const (
	SortNone       = ""
	SortDescending = "desc"
	SortAscending  = "asc"
	SortSubject    = "subject"
	SortObject     = "object"
)

// Query selects and orders predictions. Text filters are case-insensitive
// substring matches; prefix filters are exact.
type Query struct {
	Offset       int    `form:"offset" json:"offset,omitempty"`
	Limit        int    `form:"limit" json:"limit,omitempty"`
	Query        string `form:"query" json:"query,omitempty"`                 // subject, object or mapping tool
	SourceQuery  string `form:"source_query" json:"source_query,omitempty"`   // subject CURIE or name
	SourcePrefix string `form:"source_prefix" json:"source_prefix,omitempty"` // subject prefix
	TargetQuery  string `form:"target_query" json:"target_query,omitempty"`   // object CURIE or name
	TargetPrefix string `form:"target_prefix" json:"target_prefix,omitempty"` // object prefix
	Prefix       string `form:"prefix" json:"prefix,omitempty"`               // either CURIE
	Provenance   string `form:"provenance" json:"provenance,omitempty"`       // mapping tool
	SameText     bool   `form:"same_text" json:"same_text,omitempty"`         // exact matches with identical labels
	Sort         string `form:"sort" json:"sort,omitempty"`
}

func (q Query) validate() error {
	switch q.Sort {
	case SortNone, SortDescending, SortAscending, SortSubject, SortObject:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownSort, q.Sort)
}

// fold composes s to NFC and case-folds it. A Caser is stateful, so one is
// made per call.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// matcher holds the folded query strings
type matcher struct {
	q           Query
	query       string
	sourceQuery string
	targetQuery string
	prefix      string
	provenance  string
}

func newMatcher(q Query) matcher {
	return matcher{
		q:           q,
		query:       fold(q.Query),
		sourceQuery: fold(q.SourceQuery),
		targetQuery: fold(q.TargetQuery),
		prefix:      fold(q.Prefix),
		provenance:  fold(q.Provenance),
	}
}

func contains(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(fold(h), needle) {
			return true
		}
	}
	return false
}

func (mt matcher) match(m model.SemanticMapping) bool {
	if mt.query != "" && !contains(mt.query, m.Subject.CURIE(), m.Subject.Name, m.Object.CURIE(), m.Object.Name, m.MappingTool) {
		return false
	}
	if mt.sourceQuery != "" && !contains(mt.sourceQuery, m.Subject.CURIE(), m.Subject.Name) {
		return false
	}
	if mt.q.SourcePrefix != "" && m.Subject.Prefix != mt.q.SourcePrefix {
		return false
	}
	if mt.targetQuery != "" && !contains(mt.targetQuery, m.Object.CURIE(), m.Object.Name) {
		return false
	}
	if mt.q.TargetPrefix != "" && m.Object.Prefix != mt.q.TargetPrefix {
		return false
	}
	if mt.prefix != "" && !contains(mt.prefix, m.Subject.CURIE(), m.Object.CURIE()) {
		return false
	}
	if mt.provenance != "" && !contains(mt.provenance, m.MappingTool) {
		return false
	}
	if mt.q.SameText && !sameText(m) {
		return false
	}
	return true
}

func sameText(m model.SemanticMapping) bool {
	if !m.Predicate.Equal(model.ExactMatch) || m.Subject.Name == "" {
		return false
	}
	return fold(m.Subject.Name) == fold(m.Object.Name)
}

// Entry is a prediction with its position in the predicted list
type Entry struct {
	Position int                   `json:"position"`
	Mapping  model.SemanticMapping `json:"mapping"`
}

func confidenceOf(m model.SemanticMapping) float64 {
	if m.Confidence == nil {
		return 0
	}
	return *m.Confidence
}

func sortEntries(entries []Entry, mode string) {
	switch mode {
	case SortDescending:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return cmp.Compare(confidenceOf(b.Mapping), confidenceOf(a.Mapping))
		})
	case SortAscending:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return cmp.Compare(confidenceOf(a.Mapping), confidenceOf(b.Mapping))
		})
	case SortSubject:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return strings.Compare(a.Mapping.Subject.CURIE(), b.Mapping.Subject.CURIE())
		})
	case SortObject:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return strings.Compare(a.Mapping.Object.CURIE(), b.Mapping.Object.CURIE())
		})
	}
}

func page(entries []Entry, offset, limit int) []Entry {
	if offset > 0 {
		if offset >= len(entries) {
			return nil
		}
		entries = entries[offset:]
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
