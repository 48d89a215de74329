package filter

import "github.com/ppiankov/biomap/internal/model"

// ExclusionTable records known alignments as
// subject prefix -> object prefix -> subject identifier -> object identifier.
type ExclusionTable map[string]map[string]map[string]string

// NewExclusionTable indexes mappings in both directions
func NewExclusionTable(sets ...[]model.SemanticMapping) ExclusionTable {
	t := ExclusionTable{}
	for _, ms := range sets {
		for _, m := range ms {
			t.Add(m.Subject, m.Object)
			t.Add(m.Object, m.Subject)
		}
	}
	return t
}

// Add records that subject is already aligned to target; an existing entry
// for the same subject and target prefix is kept
func (t ExclusionTable) Add(subject, target model.Reference) {
	byObject, ok := t[subject.Prefix]
	if !ok {
		byObject = map[string]map[string]string{}
		t[subject.Prefix] = byObject
	}
	ids, ok := byObject[target.Prefix]
	if !ok {
		ids = map[string]string{}
		byObject[target.Prefix] = ids
	}
	if _, exists := ids[subject.Identifier]; !exists {
		ids[subject.Identifier] = target.Identifier
	}
}

// Target returns the recorded target identifier
func (t ExclusionTable) Target(subject model.Reference, targetPrefix string) (string, bool) {
	id, ok := t[subject.Prefix][targetPrefix][subject.Identifier]
	return id, ok
}

// Excludes reports whether the mapping's subject already has a recorded
// target in the object's prefix
func (t ExclusionTable) Excludes(m model.SemanticMapping) bool {
	_, ok := t.Target(m.Subject, m.Object.Prefix)
	return ok
}

// Merge copies other's entries into t without overwriting
func (t ExclusionTable) Merge(other ExclusionTable) {
	for sp, byObject := range other {
		for op, ids := range byObject {
			for sid, oid := range ids {
				t.Add(model.Reference{Prefix: sp, Identifier: sid}, model.Reference{Prefix: op, Identifier: oid})
			}
		}
	}
}

// Len counts leaf entries
func (t ExclusionTable) Len() int {
	n := 0
	for _, byObject := range t {
		for _, ids := range byObject {
			n += len(ids)
		}
	}
	return n
}
