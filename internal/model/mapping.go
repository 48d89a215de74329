package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidConfidence is returned for confidences outside [0, 1]
var ErrInvalidConfidence = errors.New("confidence must be within [0, 1]")

// ErrIncompleteMapping is returned when a required reference is missing
var ErrIncompleteMapping = errors.New("incomplete mapping")

// SemanticMapping asserts a relation between two entities
type SemanticMapping struct {
	Subject           Reference         `json:"subject"`
	Predicate         Reference         `json:"predicate"`
	PredicateModifier PredicateModifier `json:"predicate_modifier,omitempty"`
	Object            Reference         `json:"object"`
	Justification     Reference         `json:"justification"`          // How the mapping was produced
	Authors           []Reference       `json:"authors,omitempty"`      // Curators, required outside the predicted set
	Confidence        *float64          `json:"confidence,omitempty"`   // Only for machine-generated mappings
	MappingTool       string            `json:"mapping_tool,omitempty"` // Generating script or tool
}

// NewPrediction builds a machine-generated candidate and validates it
func NewPrediction(subject, predicate, object, justification Reference, confidence float64, tool string) (SemanticMapping, error) {
	m := SemanticMapping{
		Subject:       subject,
		Predicate:     predicate,
		Object:        object,
		Justification: justification,
		Confidence:    Confidence(confidence),
		MappingTool:   tool,
	}
	if err := m.Validate(); err != nil {
		return SemanticMapping{}, err
	}
	return m, nil
}

// Confidence returns a pointer suitable for SemanticMapping.Confidence
func Confidence(v float64) *float64 {
	return &v
}

// Validate checks the structural fields every mapping needs regardless of set
func (m SemanticMapping) Validate() error {
	switch {
	case m.Subject.IsZero():
		return fmt.Errorf("%w: missing subject", ErrIncompleteMapping)
	case m.Predicate.IsZero():
		return fmt.Errorf("%w: missing predicate", ErrIncompleteMapping)
	case m.Object.IsZero():
		return fmt.Errorf("%w: missing object", ErrIncompleteMapping)
	case m.Justification.IsZero():
		return fmt.Errorf("%w: missing justification", ErrIncompleteMapping)
	}
	if m.Confidence != nil && (*m.Confidence < 0 || *m.Confidence > 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidConfidence, *m.Confidence)
	}
	if m.PredicateModifier != ModifierNone && m.PredicateModifier != ModifierNot {
		return fmt.Errorf("%w: unknown predicate modifier %q", ErrIncompleteMapping, m.PredicateModifier)
	}
	return nil
}

// Author returns the primary author, if any
func (m SemanticMapping) Author() (Reference, bool) {
	if len(m.Authors) == 0 {
		return Reference{}, false
	}
	return m.Authors[0], true
}

// IsNegated reports whether the predicate carries the Not modifier
func (m SemanticMapping) IsNegated() bool {
	return m.PredicateModifier == ModifierNot
}

// IsManual reports whether the mapping is justified by manual curation
func (m SemanticMapping) IsManual() bool {
	return m.Justification.Equal(ManualMappingCuration)
}

// Clone returns a deep copy
func (m SemanticMapping) Clone() SemanticMapping {
	out := m
	if m.Authors != nil {
		out.Authors = slices.Clone(m.Authors)
	}
	if m.Confidence != nil {
		c := *m.Confidence
		out.Confidence = &c
	}
	return out
}

// Prefixes lists every prefix the mapping references
func (m SemanticMapping) Prefixes() []string {
	seen := map[string]bool{}
	var out []string
	add := func(r Reference) {
		if r.Prefix != "" && !seen[r.Prefix] {
			seen[r.Prefix] = true
			out = append(out, r.Prefix)
		}
	}
	add(m.Subject)
	add(m.Predicate)
	add(m.Object)
	add(m.Justification)
	for _, a := range m.Authors {
		add(a)
	}
	slices.Sort(out)
	return out
}

// String renders a compact one-line form for logs
func (m SemanticMapping) String() string {
	pred := m.Predicate.CURIE()
	if m.IsNegated() {
		pred = "NOT " + pred
	}
	return fmt.Sprintf("%s %s %s", m.Subject.CURIE(), pred, m.Object.CURIE())
}

// Compare gives the canonical total order used to keep every set sorted:
// subject CURIE, object CURIE, predicate, confidence, then the remaining
// fields so distinct records never compare equal.
func Compare(a, b SemanticMapping) int {
	if c := strings.Compare(a.Subject.CURIE(), b.Subject.CURIE()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Object.CURIE(), b.Object.CURIE()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Predicate.CURIE(), b.Predicate.CURIE()); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.PredicateModifier), string(b.PredicateModifier)); c != 0 {
		return c
	}
	if c := compareConfidence(a.Confidence, b.Confidence); c != 0 {
		return c
	}
	if c := strings.Compare(a.Justification.CURIE(), b.Justification.CURIE()); c != 0 {
		return c
	}
	if c := strings.Compare(a.MappingTool, b.MappingTool); c != 0 {
		return c
	}
	if c := slices.CompareFunc(a.Authors, b.Authors, CompareReferences); c != 0 {
		return c
	}
	if c := strings.Compare(a.Subject.Name, b.Subject.Name); c != 0 {
		return c
	}
	return strings.Compare(a.Object.Name, b.Object.Name)
}

// nil sorts before any value
func compareConfidence(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}
