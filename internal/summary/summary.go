// Package summary reports what the mapping repository holds.
package summary

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/biomap/internal/canon"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/store"
)

// PairCount is the number of mappings between two prefixes, in canonical
// prefix order
type PairCount struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Count  int    `json:"count" yaml:"count"`
}

// SetSummary describes one mapping set
type SetSummary struct {
	Set      model.SetName `json:"set" yaml:"set"`
	Total    int           `json:"total" yaml:"total"`
	Prefixes int           `json:"prefixes" yaml:"prefixes"`
	Pairs    []PairCount   `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

// Contributor counts the curated mappings one author is credited with
type Contributor struct {
	ORCID    string `json:"orcid" yaml:"orcid"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Positive int    `json:"positive" yaml:"positive"`
	Negative int    `json:"negative" yaml:"negative"`
	Unsure   int    `json:"unsure" yaml:"unsure"`
	Total    int    `json:"total" yaml:"total"`
}

// Summary is the whole repository report
type Summary struct {
	Total        int           `json:"total" yaml:"total"`
	Curated      int           `json:"curated" yaml:"curated"`
	Sets         []SetSummary  `json:"sets" yaml:"sets"`
	Contributors []Contributor `json:"contributors,omitempty" yaml:"contributors,omitempty"`
}

// Build summarizes a snapshot. Curators supply contributor names.
func Build(snap store.Snapshot, curators []store.Curator) *Summary {
	s := &Summary{}
	for _, set := range model.AllSets {
		ss := summarizeSet(set, snap[set])
		s.Total += ss.Total
		if set.IsCurated() {
			s.Curated += ss.Total
		}
		s.Sets = append(s.Sets, ss)
	}
	s.Contributors = contributors(snap, curators)
	return s
}

func summarizeSet(set model.SetName, ms []model.SemanticMapping) SetSummary {
	counts := map[[2]string]int{}
	prefixes := map[string]bool{}
	for _, m := range ms {
		source, target := canon.CanonicalKey(m).Pair()
		counts[[2]string{source, target}]++
		prefixes[source] = true
		prefixes[target] = true
	}

	pairs := make([]PairCount, 0, len(counts))
	for pair, n := range counts {
		pairs = append(pairs, PairCount{Source: pair[0], Target: pair[1], Count: n})
	}
	slices.SortFunc(pairs, func(a, b PairCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
	return SetSummary{Set: set, Total: len(ms), Prefixes: len(prefixes), Pairs: pairs}
}

func contributors(snap store.Snapshot, curators []store.Curator) []Contributor {
	byORCID := map[string]*Contributor{}
	for _, set := range model.CuratedSets {
		for _, m := range snap[set] {
			for _, a := range m.Authors {
				if a.Prefix != model.AuthorPrefix {
					continue
				}
				c, ok := byORCID[a.Identifier]
				if !ok {
					c = &Contributor{ORCID: a.Identifier}
					byORCID[a.Identifier] = c
				}
				switch set {
				case model.SetPositive:
					c.Positive++
				case model.SetNegative:
					c.Negative++
				case model.SetUnsure:
					c.Unsure++
				}
				c.Total++
			}
		}
	}

	for _, cur := range curators {
		if c, ok := byORCID[cur.ORCID]; ok {
			c.Name = cur.Name
			c.User = cur.User
		}
	}

	out := make([]Contributor, 0, len(byORCID))
	for _, c := range byORCID {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Contributor) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.ORCID, b.ORCID)
	})
	return out
}

// WriteYAML encodes the summary as YAML
func (s *Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return enc.Close()
}
