// Package store persists the four mapping sets as sorted, deduplicated
// SSSOM-style TSV files.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/ppiankov/biomap/internal/canon"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/registry"
)

// ErrCrossRedundant is returned when a write would curate the same pair twice
var ErrCrossRedundant = errors.New("mapping already curated in another set")

// Snapshot holds the content of every set
type Snapshot map[model.SetName][]model.SemanticMapping

// Curated returns the three curated sets in validation order
func (s Snapshot) Curated() [][]model.SemanticMapping {
	out := make([][]model.SemanticMapping, 0, len(model.CuratedSets))
	for _, name := range model.CuratedSets {
		out = append(out, s[name])
	}
	return out
}

// Store reads and writes the mapping sets of one repository
type Store struct {
	cfg      model.RepositoryConfig
	registry *registry.Registry
	scorer   canon.Scorer
	logger   *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithRegistry sets the registry used for header CURIE maps
func WithRegistry(r *registry.Registry) Option {
	return func(s *Store) { s.registry = r }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithScorer sets the duplicate scorer used on write
func WithScorer(scorer canon.Scorer) Option {
	return func(s *Store) { s.scorer = scorer }
}

// New creates a store over the configured repository
func New(cfg model.RepositoryConfig, opts ...Option) *Store {
	s := &Store{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = registry.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.scorer == nil {
		prefix := cfg.TrustedAuthor
		if prefix == "" {
			prefix = model.AuthorPrefix
		}
		s.scorer = canon.TrustedAuthorScorer(prefix)
	}
	return s
}

// Path returns the file backing a set
func (s *Store) Path(set model.SetName) (string, error) {
	if _, err := model.ParseSetName(string(set)); err != nil {
		return "", err
	}
	return s.cfg.SetPath(set), nil
}

// Read loads a set in on-disk order; a missing file is an empty set
func (s *Store) Read(set model.SetName) ([]model.SemanticMapping, error) {
	path, err := s.Path(set)
	if err != nil {
		return nil, err
	}
	return ReadFile(path)
}

// ReadAll loads every set
func (s *Store) ReadAll() (Snapshot, error) {
	snap := make(Snapshot, len(model.AllSets))
	for _, set := range model.AllSets {
		ms, err := s.Read(set)
		if err != nil {
			return nil, fmt.Errorf("read %s set: %w", set, err)
		}
		snap[set] = ms
	}
	return snap, nil
}

// WriteOption adjusts how a set is written
type WriteOption func(*writeOptions)

type writeOptions struct {
	sort    bool
	dedup   bool
	exclude canon.KeySet
}

func defaultWriteOptions() writeOptions {
	return writeOptions{sort: true, dedup: true}
}

// WithoutSort keeps the given order
func WithoutSort() WriteOption {
	return func(o *writeOptions) { o.sort = false }
}

// WithoutDedup keeps duplicate pairs
func WithoutDedup() WriteOption {
	return func(o *writeOptions) { o.dedup = false }
}

// Excluding drops records whose canonical key is in keys
func Excluding(keys canon.KeySet) WriteOption {
	return func(o *writeOptions) {
		if o.exclude == nil {
			o.exclude = canon.KeySet{}
		}
		for k := range keys {
			o.exclude.Add(k)
		}
	}
}

// Write replaces a set. By default it is deduplicated and sorted first.
func (s *Store) Write(set model.SetName, ms []model.SemanticMapping, opts ...WriteOption) error {
	b := NewBatch()
	b.Write(set, ms, opts...)
	return s.Apply(b)
}

// Append adds mappings to a set, then deduplicates and sorts it
func (s *Store) Append(set model.SetName, ms []model.SemanticMapping) error {
	b := NewBatch()
	b.Append(set, ms)
	return s.Apply(b)
}

// WritePredictions replaces the predicted set, dropping any pair already curated
func (s *Store) WritePredictions(ms []model.SemanticMapping) error {
	curated, err := s.curatedKeys()
	if err != nil {
		return err
	}
	return s.Write(model.SetPredicted, ms, Excluding(curated))
}

// AppendPredictions adds candidates to the predicted set, dropping any pair
// already curated
func (s *Store) AppendPredictions(ms []model.SemanticMapping) error {
	curated, err := s.curatedKeys()
	if err != nil {
		return err
	}
	b := NewBatch()
	b.Append(model.SetPredicted, ms, Excluding(curated))
	return s.Apply(b)
}

// Lint rewrites every set in canonical form and removes curated pairs from
// the predicted set
func (s *Store) Lint() error {
	snap, err := s.ReadAll()
	if err != nil {
		return err
	}

	b := NewBatch()
	for _, set := range model.CuratedSets {
		b.Write(set, snap[set])
	}
	b.Write(model.SetPredicted, snap[model.SetPredicted], Excluding(canon.KeysOf(snap.Curated()...)))
	return s.Apply(b)
}

func (s *Store) curatedKeys() (canon.KeySet, error) {
	keys := canon.KeySet{}
	for _, set := range model.CuratedSets {
		ms, err := s.Read(set)
		if err != nil {
			return nil, fmt.Errorf("read %s set: %w", set, err)
		}
		for _, m := range ms {
			keys.Add(canon.CanonicalKey(m))
		}
	}
	return keys, nil
}

// header builds the metadata block for a set
func (s *Store) header(set model.SetName, ms []model.SemanticMapping) Header {
	var prefixes []string
	for _, m := range ms {
		for _, p := range m.Prefixes() {
			if !slices.Contains(prefixes, p) {
				prefixes = append(prefixes, p)
			}
		}
	}

	h := Header{
		License:  s.cfg.License,
		CURIEMap: s.registry.CURIEMap(prefixes),
	}
	if s.cfg.PURLBase != "" {
		h.MappingSetID = s.cfg.PURLBase + "/" + filepath.Base(s.cfg.SetPath(set))
	}
	if s.cfg.Title != "" {
		h.MappingSetTitle = s.cfg.Title + " " + string(set)
	}
	return h
}

func (s *Store) prepare(ms []model.SemanticMapping, o writeOptions) []model.SemanticMapping {
	out := slices.Clone(ms)
	if len(o.exclude) > 0 {
		out = canon.Exclude(out, o.exclude)
	}
	if o.dedup {
		out = canon.Deduplicate(out, s.scorer)
	}
	if o.sort {
		canon.Sort(out)
	}
	return out
}
