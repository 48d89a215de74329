// Package validate is the integrity gate run over the whole mapping
// repository.
package validate

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/biomap/internal/canon"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/registry"
	"github.com/ppiankov/biomap/internal/store"
)

// ErrInvalid is wrapped by Report.Err when any violation was found
var ErrInvalid = errors.New("mapping repository failed validation")

// Check names
const (
	CheckJustification      = "justification"
	CheckManualPrediction   = "manual_prediction"
	CheckNormalized         = "normalized"
	CheckAuthor             = "author"
	CheckConfidence         = "confidence"
	CheckMappingTool        = "mapping_tool"
	CheckSorted             = "sorted"
	CheckInternalRedundancy = "internal_redundancy"
	CheckCrossRedundancy    = "cross_redundancy"
)

// Violation is one failed check on one record
type Violation struct {
	Check    string        `json:"check" yaml:"check"`
	Set      model.SetName `json:"set" yaml:"set"`
	Position int           `json:"position" yaml:"position"`
	Message  string        `json:"message" yaml:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%d] %s: %s", v.Set, v.Position, v.Check, v.Message)
}

// Report gathers every violation found in a snapshot. Warnings never fail
// validation.
type Report struct {
	Records    map[model.SetName]int `json:"records" yaml:"records"`
	Violations []Violation           `json:"violations,omitempty" yaml:"violations,omitempty"`
	Warnings   []Violation           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// OK reports whether no violations were found
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Has reports whether any violation of the given check was found
func (r *Report) Has(check string) bool {
	return slices.ContainsFunc(r.Violations, func(v Violation) bool { return v.Check == check })
}

// Err returns nil for a clean report, otherwise one error listing every
// violation
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		lines[i] = "  " + v.String()
	}
	return fmt.Errorf("%w: %d violation(s)\n%s", ErrInvalid, len(r.Violations), strings.Join(lines, "\n"))
}

func (r *Report) fail(check string, set model.SetName, position int, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{Check: check, Set: set, Position: position, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warn(check string, set model.SetName, position int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Violation{Check: check, Set: set, Position: position, Message: fmt.Sprintf(format, args...)})
}

// Validator checks repository snapshots
type Validator struct {
	registry  *registry.Registry
	authority *AuthorityClassifier
}

// NewValidator creates a validator; a nil registry uses the default one
func NewValidator(reg *registry.Registry, curators []store.Curator) *Validator {
	if reg == nil {
		reg = registry.Default()
	}
	return &Validator{
		registry:  reg,
		authority: NewAuthorityClassifier(curators),
	}
}

// ValidateStore reads every set from s and validates it
func (v *Validator) ValidateStore(s *store.Store) (*Report, error) {
	snap, err := s.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read repository: %w", err)
	}
	return v.Validate(snap), nil
}

// Validate runs every check over the snapshot
func (v *Validator) Validate(snap store.Snapshot) *Report {
	report := &Report{Records: make(map[model.SetName]int, len(model.AllSets))}

	for _, set := range model.AllSets {
		ms := snap[set]
		report.Records[set] = len(ms)

		for i, m := range ms {
			v.checkRecord(report, set, i, m)
		}

		if pos := canon.FirstUnsorted(ms); pos >= 0 {
			report.fail(CheckSorted, set, pos, "%s sorts before its predecessor", ms[pos])
		}
		for _, dup := range canon.AssertNoInternalRedundancy(ms) {
			for _, pos := range dup.Positions[1:] {
				report.fail(CheckInternalRedundancy, set, pos, "%s duplicates position %d", dup.Key, dup.Positions[0])
			}
		}
	}

	v.checkCrossRedundancy(report, snap)
	return report
}

func (v *Validator) checkRecord(report *Report, set model.SetName, i int, m model.SemanticMapping) {
	if !model.IsMatchingProcess(m.Justification) {
		report.fail(CheckJustification, set, i, "%s is not a semapv matching process", m.Justification.CURIE())
	}

	refs := []model.Reference{m.Subject, m.Predicate, m.Object, m.Justification}
	refs = append(refs, m.Authors...)
	for _, ref := range refs {
		if err := v.registry.Check(ref); err != nil {
			report.fail(CheckNormalized, set, i, "%v", err)
		}
	}

	if set == model.SetPredicted {
		if m.IsManual() {
			report.fail(CheckManualPrediction, set, i, "prediction is justified by manual curation")
		}
		if m.Confidence == nil {
			report.fail(CheckConfidence, set, i, "prediction has no confidence")
		}
		if len(m.Authors) > 0 {
			report.fail(CheckAuthor, set, i, "prediction has authors")
		}
		if m.MappingTool == "" {
			report.fail(CheckMappingTool, set, i, "prediction has no mapping tool")
		}
		return
	}

	if m.Confidence != nil {
		report.fail(CheckConfidence, set, i, "curated mapping carries confidence %v", *m.Confidence)
	}
	if len(m.Authors) == 0 {
		report.fail(CheckAuthor, set, i, "curated mapping has no author")
	}
	for _, a := range m.Authors {
		switch v.authority.Classify(a) {
		case AuthorInvalid:
			report.fail(CheckAuthor, set, i, "author %s is not a valid ORCID", a.CURIE())
		case AuthorUnregistered:
			report.warn(CheckAuthor, set, i, "author %s is not in the curators table", a.CURIE())
		}
	}
}

func (v *Validator) checkCrossRedundancy(report *Report, snap store.Snapshot) {
	labeled := make([]canon.LabeledSet, len(model.AllSets))
	for i, set := range model.AllSets {
		labeled[i] = canon.LabeledSet{Label: string(set), Mappings: snap[set]}
	}

	redundant := canon.FindCrossRedundant(labeled...)
	keys := make([]canon.Key, 0, len(redundant))
	for k := range redundant {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b canon.Key) int { return strings.Compare(a.String(), b.String()) })

	for _, k := range keys {
		bySet := redundant[k]
		var present []string
		for _, set := range model.AllSets {
			if _, ok := bySet[string(set)]; ok {
				present = append(present, string(set))
			}
		}
		// Reported against every set after the first that holds the key
		for _, label := range present[1:] {
			set := model.SetName(label)
			report.fail(CheckCrossRedundancy, set, bySet[label][0], "%s is also in the %s set", k, present[0])
		}
	}
}
