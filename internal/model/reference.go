package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCURIE is returned when a string can't be split into prefix and identifier
var ErrInvalidCURIE = errors.New("invalid CURIE")

// Reference points to an entity in a namespace.
// Identity is (Prefix, Identifier); Name is informational only.
type Reference struct {
	Prefix     string `json:"prefix" yaml:"prefix"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
}

// RefKey is the comparable identity of a Reference
type RefKey struct {
	Prefix     string
	Identifier string
}

// ParseCURIE splits "prefix:identifier" on the first colon
func ParseCURIE(curie string) (Reference, error) {
	curie = strings.TrimSpace(curie)
	prefix, identifier, ok := strings.Cut(curie, ":")
	if !ok || prefix == "" || identifier == "" {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidCURIE, curie)
	}
	return Reference{Prefix: prefix, Identifier: identifier}, nil
}

// MustParseCURIE is ParseCURIE for package-level constants
func MustParseCURIE(curie string) Reference {
	ref, err := ParseCURIE(curie)
	if err != nil {
		panic(err)
	}
	return ref
}

// CURIE renders the reference as prefix:identifier
func (r Reference) CURIE() string {
	if r.IsZero() {
		return ""
	}
	return r.Prefix + ":" + r.Identifier
}

// String implements fmt.Stringer
func (r Reference) String() string {
	return r.CURIE()
}

// Key returns the identity of the reference, dropping the name
func (r Reference) Key() RefKey {
	return RefKey{Prefix: r.Prefix, Identifier: r.Identifier}
}

// IsZero reports whether neither prefix nor identifier is set
func (r Reference) IsZero() bool {
	return r.Prefix == "" && r.Identifier == ""
}

// Equal compares identity only
func (r Reference) Equal(other Reference) bool {
	return r.Prefix == other.Prefix && r.Identifier == other.Identifier
}

// WithName returns a copy carrying the given label
func (r Reference) WithName(name string) Reference {
	r.Name = name
	return r
}

// CompareReferences orders by prefix, then identifier
func CompareReferences(a, b Reference) int {
	if c := strings.Compare(a.Prefix, b.Prefix); c != 0 {
		return c
	}
	return strings.Compare(a.Identifier, b.Identifier)
}

// CURIE returns the key as prefix:identifier
func (k RefKey) CURIE() string {
	return k.Prefix + ":" + k.Identifier
}
