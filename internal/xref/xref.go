// Package xref supplies known cross-references between vocabularies from
// local files, a remote mirror, or a cache in front of either.
package xref

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/registry"
)

// ErrDisallowed is returned when robots.txt forbids fetching a prefix
var ErrDisallowed = errors.New("fetch disallowed by robots.txt")

// Provider lists the cross-references known for entities of a prefix
type Provider interface {
	MappingsFor(ctx context.Context, prefix string) ([]model.Xref, error)
}

// ParseTSV reads two tab-separated CURIE columns per line. Blank lines,
// '#' comments and a leading subject_id header are skipped.
func ParseTSV(r io.Reader) ([]model.Xref, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var out []model.Xref
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read xref row: %w", err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("xref row %d: expected 2 columns, got %d", line, len(record))
		}
		if line == 1 && strings.EqualFold(record[0], "subject_id") {
			continue
		}

		subject, err := model.ParseCURIE(record[0])
		if err != nil {
			return nil, fmt.Errorf("xref row %d: %w", line, err)
		}
		object, err := model.ParseCURIE(record[1])
		if err != nil {
			return nil, fmt.Errorf("xref row %d: %w", line, err)
		}
		out = append(out, model.Xref{Subject: subject, Object: object})
	}
	return out, nil
}

// Normalizing wraps a provider so every reference it returns is normalized
// through reg; references the registry rejects are dropped and logged.
func Normalizing(p Provider, reg *registry.Registry, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &normalizing{inner: p, reg: reg, logger: logger}
}

type normalizing struct {
	inner  Provider
	reg    *registry.Registry
	logger *slog.Logger
}

func (n *normalizing) MappingsFor(ctx context.Context, prefix string) ([]model.Xref, error) {
	xrefs, err := n.inner.MappingsFor(ctx, prefix)
	if err != nil {
		return nil, err
	}

	out := make([]model.Xref, 0, len(xrefs))
	dropped := 0
	for _, x := range xrefs {
		subject, err1 := n.reg.Normalize(x.Subject)
		object, err2 := n.reg.Normalize(x.Object)
		if err1 != nil || err2 != nil {
			dropped++
			continue
		}
		out = append(out, model.Xref{Subject: subject, Object: object})
	}
	if dropped > 0 {
		n.logger.Warn("dropped invalid xrefs", "prefix", prefix, "dropped", dropped)
	}
	return out, nil
}
