// Package registry normalizes references against a table of known prefixes.
package registry

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/biomap/internal/model"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownPrefix is returned when a prefix is neither canonical nor a known synonym
	ErrUnknownPrefix = errors.New("unknown prefix")

	// ErrInvalidIdentifier is returned when an identifier fails its prefix's pattern
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNotNormalized is returned by Check for references that normalize to something else
	ErrNotNormalized = errors.New("reference is not normalized")
)

// Entry describes one namespace
type Entry struct {
	Prefix    string   `yaml:"prefix"`
	Synonyms  []string `yaml:"synonyms,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`    // Regular expression for local identifiers
	URIPrefix string   `yaml:"uri_prefix,omitempty"` // Expanded form is URIPrefix + identifier
	Banana    string   `yaml:"banana,omitempty"`     // Redundant prefix some sources embed in identifiers
}

type compiledEntry struct {
	Entry
	pattern *regexp.Regexp
}

// Registry resolves prefixes and validates identifiers
type Registry struct {
	entries map[string]*compiledEntry
	index   map[string]string // lowercased prefix or synonym -> canonical prefix
}

// File is the on-disk layout of an extra registry file
type File struct {
	Prefixes []Entry `yaml:"prefixes"`
}

// New builds a registry from entries; later entries override earlier ones
func New(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]*compiledEntry),
		index:   make(map[string]string),
	}
	for _, e := range entries {
		if err := r.add(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns the built-in registry
func Default() *Registry {
	r, err := New(defaultEntries)
	if err != nil {
		panic(fmt.Sprintf("default registry: %v", err))
	}
	return r
}

// Load returns the default registry extended with the entries in path
func Load(path string) (*Registry, error) {
	r := Default()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry file: %w", err)
	}

	for _, e := range f.Prefixes {
		if err := r.add(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(e Entry) error {
	if e.Prefix == "" {
		return fmt.Errorf("registry entry without prefix")
	}

	ce := &compiledEntry{Entry: e}
	if e.Pattern != "" {
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return fmt.Errorf("compile pattern for %s: %w", e.Prefix, err)
		}
		ce.pattern = re
	}

	r.entries[e.Prefix] = ce
	r.index[strings.ToLower(e.Prefix)] = e.Prefix
	for _, syn := range e.Synonyms {
		r.index[strings.ToLower(syn)] = e.Prefix
	}
	return nil
}

// Lookup resolves a prefix or synonym to its canonical prefix
func (r *Registry) Lookup(prefix string) (string, bool) {
	canonical, ok := r.index[strings.ToLower(strings.TrimSpace(prefix))]
	return canonical, ok
}

// Normalize rewrites a reference into canonical registry form
func (r *Registry) Normalize(ref model.Reference) (model.Reference, error) {
	canonical, ok := r.Lookup(ref.Prefix)
	if !ok {
		return model.Reference{}, fmt.Errorf("%w: %q", ErrUnknownPrefix, ref.Prefix)
	}
	e := r.entries[canonical]

	identifier := strings.TrimSpace(ref.Identifier)
	if e.Banana != "" && len(identifier) > len(e.Banana) && strings.EqualFold(identifier[:len(e.Banana)], e.Banana) {
		identifier = identifier[len(e.Banana):]
	}

	if e.pattern != nil && !e.pattern.MatchString(identifier) {
		return model.Reference{}, fmt.Errorf("%w: %s:%s does not match %s", ErrInvalidIdentifier, canonical, identifier, e.Pattern)
	}

	return model.Reference{Prefix: canonical, Identifier: identifier, Name: ref.Name}, nil
}

// NormalizeCURIE parses and normalizes a CURIE string
func (r *Registry) NormalizeCURIE(curie string) (model.Reference, error) {
	ref, err := model.ParseCURIE(curie)
	if err != nil {
		return model.Reference{}, err
	}
	return r.Normalize(ref)
}

// Check verifies a reference is already in canonical form
func (r *Registry) Check(ref model.Reference) error {
	norm, err := r.Normalize(ref)
	if err != nil {
		return err
	}
	if !norm.Equal(ref) {
		return fmt.Errorf("%w: %s should be %s", ErrNotNormalized, ref.CURIE(), norm.CURIE())
	}
	return nil
}

// NormalizeMapping normalizes every reference a mapping carries
func (r *Registry) NormalizeMapping(m model.SemanticMapping) (model.SemanticMapping, error) {
	out := m.Clone()
	var err error
	if out.Subject, err = r.Normalize(m.Subject); err != nil {
		return model.SemanticMapping{}, fmt.Errorf("subject: %w", err)
	}
	if out.Object, err = r.Normalize(m.Object); err != nil {
		return model.SemanticMapping{}, fmt.Errorf("object: %w", err)
	}
	if out.Predicate, err = r.Normalize(m.Predicate); err != nil {
		return model.SemanticMapping{}, fmt.Errorf("predicate: %w", err)
	}
	if out.Justification, err = r.Normalize(m.Justification); err != nil {
		return model.SemanticMapping{}, fmt.Errorf("justification: %w", err)
	}
	for i, a := range m.Authors {
		if out.Authors[i], err = r.Normalize(a); err != nil {
			return model.SemanticMapping{}, fmt.Errorf("author: %w", err)
		}
	}
	return out, nil
}

// Expand returns the IRI for a reference when its prefix has a URI prefix
func (r *Registry) Expand(ref model.Reference) (string, bool) {
	e, ok := r.entries[ref.Prefix]
	if !ok || e.URIPrefix == "" {
		return "", false
	}
	return e.URIPrefix + ref.Identifier, true
}

// CURIEMap returns prefix -> URI prefix for the given prefixes that have one
func (r *Registry) CURIEMap(prefixes []string) map[string]string {
	out := make(map[string]string, len(prefixes))
	for _, p := range prefixes {
		if e, ok := r.entries[p]; ok && e.URIPrefix != "" {
			out[p] = e.URIPrefix
		}
	}
	return out
}

// Prefixes lists canonical prefixes in sorted order
func (r *Registry) Prefixes() []string {
	out := make([]string, 0, len(r.entries))
	for p := range r.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
