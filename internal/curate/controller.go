// Package curate holds the curation session: filtered review of predicted
// mappings, marking them with a disposition, and persisting the decisions.
package curate

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/ppiankov/biomap/internal/canon"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/registry"
	"github.com/ppiankov/biomap/internal/store"
)

var (
	// ErrOutOfRange is returned when marking a position outside the predicted list
	ErrOutOfRange = errors.New("position out of range")

	// ErrUnknownSort is returned for an unrecognized sort mode
	ErrUnknownSort = errors.New("unknown sort mode")

	// ErrAlreadyCurated is returned when adding a pair that already has a decision
	ErrAlreadyCurated = errors.New("mapping already curated")

	// ErrInvalidReference is returned when a manually entered reference fails normalization
	ErrInvalidReference = errors.New("invalid reference")
)

// Store is the persistence the controller needs
type Store interface {
	Read(set model.SetName) ([]model.SemanticMapping, error)
	Apply(b *store.Batch) error
}

// Controller is one curator's session over the predicted set. All methods
// are safe for concurrent use; Persist is serialized with every other call.
type Controller struct {
	mu sync.RWMutex

	store    Store
	user     model.Reference
	registry *registry.Registry
	logger   *slog.Logger
	targets  map[model.RefKey]bool

	predictions []model.SemanticMapping
	marks       map[int]model.Disposition
	added       []model.SemanticMapping
	curated     canon.KeySet
	total       int
}

// Option configures a Controller
type Option func(*Controller)

// WithTargetReferences only surfaces predictions touching one of refs
func WithTargetReferences(refs []model.Reference) Option {
	return func(c *Controller) {
		c.targets = make(map[model.RefKey]bool, len(refs))
		for _, r := range refs {
			c.targets[r.Key()] = true
		}
	}
}

// WithRegistry sets the registry used to validate manual additions
func WithRegistry(r *registry.Registry) Option {
	return func(c *Controller) { c.registry = r }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New loads the predicted and curated sets and starts a session for user
func New(s Store, user model.Reference, opts ...Option) (*Controller, error) {
	c := &Controller{
		store: s,
		user:  user,
		marks: map[int]model.Disposition{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = registry.Default()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	predictions, err := s.Read(model.SetPredicted)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	c.predictions = predictions

	c.curated = canon.KeySet{}
	for _, set := range model.CuratedSets {
		ms, err := s.Read(set)
		if err != nil {
			return nil, fmt.Errorf("load %s set: %w", set, err)
		}
		for _, m := range ms {
			c.curated.Add(canon.CanonicalKey(m))
		}
	}
	return c, nil
}

// User returns the curator this session records as author
func (c *Controller) User() model.Reference {
	return c.user
}

// Predictions returns a restartable sequence of (position, mapping) pairs
// matching q, skipping positions marked in this session. Each iteration
// reflects the session state at the time it starts.
func (c *Controller) Predictions(q Query) (iter.Seq2[int, model.SemanticMapping], error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	return func(yield func(int, model.SemanticMapping) bool) {
		for _, e := range c.selectEntries(q, true) {
			if !yield(e.Position, e.Mapping) {
				return
			}
		}
	}, nil
}

// Entries collects one page of Predictions
func (c *Controller) Entries(q Query) ([]Entry, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	return c.selectEntries(q, true), nil
}

// CountPredictions counts predictions matching q, ignoring offset and limit
func (c *Controller) CountPredictions(q Query) (int, error) {
	if err := q.validate(); err != nil {
		return 0, err
	}
	return len(c.selectEntries(q, false)), nil
}

func (c *Controller) selectEntries(q Query, paged bool) []Entry {
	mt := newMatcher(q)

	c.mu.RLock()
	var entries []Entry
	for i, m := range c.predictions {
		if _, marked := c.marks[i]; marked {
			continue
		}
		if c.targets != nil && !c.targets[m.Subject.Key()] && !c.targets[m.Object.Key()] {
			continue
		}
		if !mt.match(m) {
			continue
		}
		entries = append(entries, Entry{Position: i, Mapping: m.Clone()})
	}
	c.mu.RUnlock()

	if !paged {
		return entries
	}
	sortEntries(entries, q.Sort)
	return page(entries, q.Offset, q.Limit)
}

// Mark records a disposition for the prediction at position. Marking the
// same position again replaces the earlier disposition.
func (c *Controller) Mark(position int, d model.Disposition) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidDisposition, d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if position < 0 || position >= len(c.predictions) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, position, len(c.predictions))
	}
	if _, marked := c.marks[position]; !marked {
		c.total++
	}
	c.marks[position] = d
	return nil
}

// AddMapping queues a manually entered exact match for the positive set.
// Nothing is stored until Persist.
func (c *Controller) AddMapping(subject, object model.Reference) error {
	s, err := c.registry.Normalize(subject)
	if err != nil {
		return fmt.Errorf("%w: subject: %w", ErrInvalidReference, err)
	}
	o, err := c.registry.Normalize(object)
	if err != nil {
		return fmt.Errorf("%w: object: %w", ErrInvalidReference, err)
	}

	m := model.SemanticMapping{
		Subject:       s,
		Predicate:     model.ExactMatch,
		Object:        o,
		Justification: model.ManualMappingCuration,
		Authors:       []model.Reference{c.author()},
	}
	k := canon.CanonicalKey(m)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.curated.Has(k) || slices.ContainsFunc(c.added, func(a model.SemanticMapping) bool {
		return canon.CanonicalKey(a) == k
	}) {
		return fmt.Errorf("%w: %s", ErrAlreadyCurated, k)
	}
	for pos := range c.marks {
		if canon.CanonicalKey(c.predictions[pos]) == k {
			return fmt.Errorf("%w: %s is marked at position %d", ErrAlreadyCurated, k, pos)
		}
	}
	c.added = append(c.added, m)
	c.total++
	return nil
}

// Pending reports the marks and manual additions awaiting Persist
func (c *Controller) Pending() (marks, added int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.marks), len(c.added)
}

// Marks returns a copy of the pending marks by position
func (c *Controller) Marks() map[int]model.Disposition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.marks)
}

// TotalPredictions counts predictions not yet marked
func (c *Controller) TotalPredictions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.predictions) - len(c.marks)
}

// TotalCurated counts decisions made in this session, persisted or not
func (c *Controller) TotalCurated() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// author strips the display name so records carry only the identifier
func (c *Controller) author() model.Reference {
	return model.Reference{Prefix: c.user.Prefix, Identifier: c.user.Identifier}
}

// curate turns a prediction into the record stored for disposition d
func (c *Controller) curate(m model.SemanticMapping, d model.Disposition) model.SemanticMapping {
	out := m.Clone()
	out.Justification = model.ManualMappingCuration
	out.Authors = []model.Reference{c.author()}
	out.Confidence = nil

	switch d {
	case model.Broad:
		out.Predicate = model.NarrowMatch
	case model.Narrow:
		out.Predicate = model.BroadMatch
	case model.Incorrect:
		out.PredicateModifier = model.ModifierNot
	}
	return out
}

// Persist migrates every marked prediction to its destination set, stores
// manual additions in the positive set, and rewrites the predicted set, all
// in one batch. When the batch fails the session is left unchanged.
func (c *Controller) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.marks) == 0 && len(c.added) == 0 {
		return nil
	}

	positions := slices.SortedFunc(maps.Keys(c.marks), func(a, b int) int { return cmp.Compare(b, a) })
	remaining := slices.Clone(c.predictions)
	destinations := map[model.SetName][]model.SemanticMapping{}

	for _, pos := range positions {
		if pos >= len(remaining) {
			return fmt.Errorf("%w: marked position %d", ErrOutOfRange, pos)
		}
		d := c.marks[pos]
		m := remaining[pos]
		remaining = slices.Delete(remaining, pos, pos+1)

		dest := d.Destination()
		destinations[dest] = append(destinations[dest], c.curate(m, d))
	}
	destinations[model.SetPositive] = append(destinations[model.SetPositive], c.added...)

	newKeys := canon.KeySet{}
	b := store.NewBatch()
	for _, set := range model.CuratedSets {
		if len(destinations[set]) == 0 {
			continue
		}
		for _, m := range destinations[set] {
			newKeys.Add(canon.CanonicalKey(m))
		}
		b.Append(set, destinations[set])
	}
	b.Write(model.SetPredicted, remaining, store.Excluding(newKeys))

	if err := c.store.Apply(b); err != nil {
		return fmt.Errorf("persist curation: %w", err)
	}

	predictions, err := c.store.Read(model.SetPredicted)
	if err != nil {
		c.logger.Warn("reload predictions after persist", "error", err)
		predictions = canon.Exclude(remaining, newKeys)
	}

	c.logger.Info("persisted curation",
		"positive", len(destinations[model.SetPositive]),
		"negative", len(destinations[model.SetNegative]),
		"unsure", len(destinations[model.SetUnsure]),
		"remaining", len(predictions),
	)

	c.predictions = predictions
	for k := range newKeys {
		c.curated.Add(k)
	}
	c.marks = map[int]model.Disposition{}
	c.added = nil
	return nil
}

// PairCount is the number of predictions between two prefixes
type PairCount struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Count  int    `json:"count" yaml:"count"`
}

// PrefixPairCounts groups matching predictions by (subject, object) prefix,
// most common first
func (c *Controller) PrefixPairCounts(q Query) ([]PairCount, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	counts := map[[2]string]int{}
	for _, e := range c.selectEntries(q, false) {
		counts[[2]string{e.Mapping.Subject.Prefix, e.Mapping.Object.Prefix}]++
	}

	out := make([]PairCount, 0, len(counts))
	for pair, n := range counts {
		out = append(out, PairCount{Source: pair[0], Target: pair[1], Count: n})
	}
	slices.SortFunc(out, func(a, b PairCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
	return out, nil
}
