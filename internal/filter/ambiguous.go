package filter

import "github.com/ppiankov/biomap/internal/model"

// Candidate is a normalized candidate pair with IRI-like endpoints
type Candidate struct {
	SourceIRI  string `json:"source_iri"`
	SourceName string `json:"source_name,omitempty"`
	TargetIRI  string `json:"target_iri"`
	TargetName string `json:"target_name,omitempty"`
}

// CheckAmbiguous splits a batch into candidates touching an endpoint that
// occurs more than once in the batch, and the rest. Occurrences are counted
// over both columns combined. Input order is kept in both partitions.
func CheckAmbiguous(candidates []Candidate) (ambiguous, unambiguous []Candidate) {
	counts := make(map[string]int, len(candidates)*2)
	for _, c := range candidates {
		counts[c.SourceIRI]++
		if c.TargetIRI != c.SourceIRI {
			counts[c.TargetIRI]++
		}
	}

	for _, c := range candidates {
		if counts[c.SourceIRI] > 1 || counts[c.TargetIRI] > 1 {
			ambiguous = append(ambiguous, c)
		} else {
			unambiguous = append(unambiguous, c)
		}
	}
	return ambiguous, unambiguous
}

// SplitAmbiguous applies CheckAmbiguous to mappings, using CURIEs as endpoints
func SplitAmbiguous(ms []model.SemanticMapping) (ambiguous, unambiguous []model.SemanticMapping) {
	counts := make(map[model.RefKey]int, len(ms)*2)
	for _, m := range ms {
		counts[m.Subject.Key()]++
		if m.Object.Key() != m.Subject.Key() {
			counts[m.Object.Key()]++
		}
	}

	for _, m := range ms {
		if counts[m.Subject.Key()] > 1 || counts[m.Object.Key()] > 1 {
			ambiguous = append(ambiguous, m)
		} else {
			unambiguous = append(unambiguous, m)
		}
	}
	return ambiguous, unambiguous
}
