package xref

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/biomap/internal/model"
)

// DirProvider reads <dir>/<prefix>.tsv; a missing file means no xrefs
type DirProvider struct {
	dir string
}

// NewDirProvider creates a provider over a directory of TSV files
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{dir: dir}
}

func (d *DirProvider) MappingsFor(ctx context.Context, prefix string) ([]model.Xref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(d.dir, filepath.Base(prefix)+".tsv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open xrefs for %s: %w", prefix, err)
	}
	defer func() { _ = f.Close() }()

	xrefs, err := ParseTSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse xrefs for %s: %w", prefix, err)
	}
	return xrefs, nil
}
