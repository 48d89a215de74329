package store

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/biomap/internal/model"
)

// Columns is the fixed column order of every mapping file
var Columns = []string{
	"subject_id",
	"subject_label",
	"predicate_id",
	"predicate_modifier",
	"object_id",
	"object_label",
	"mapping_justification",
	"author_id",
	"confidence",
	"mapping_tool",
}

var requiredColumns = []string{"subject_id", "predicate_id", "object_id", "mapping_justification"}

// AuthorSeparator joins multiple authors in the author_id column
const AuthorSeparator = "|"

// Header is the YAML metadata block written as '#' comment lines
type Header struct {
	MappingSetID    string            `yaml:"mapping_set_id,omitempty"`
	MappingSetTitle string            `yaml:"mapping_set_title,omitempty"`
	License         string            `yaml:"license,omitempty"`
	CURIEMap        map[string]string `yaml:"curie_map,omitempty"`
}

// IsZero reports whether there is no metadata to write
func (h Header) IsZero() bool {
	return h.MappingSetID == "" && h.MappingSetTitle == "" && h.License == "" && len(h.CURIEMap) == 0
}

// Encode writes the metadata block, the column row and one row per mapping
func Encode(w io.Writer, h Header, ms []model.SemanticMapping) error {
	meta, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	bw := bufio.NewWriter(w)
	if !h.IsZero() {
		for _, line := range strings.Split(strings.TrimRight(string(meta), "\n"), "\n") {
			if _, err := bw.WriteString("#" + line + "\n"); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
		}
	}

	cw := csv.NewWriter(bw)
	cw.Comma = '\t'
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write columns: %w", err)
	}
	for _, m := range ms {
		if err := cw.Write(row(m)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return bw.Flush()
}

func row(m model.SemanticMapping) []string {
	authors := make([]string, len(m.Authors))
	for i, a := range m.Authors {
		authors[i] = a.CURIE()
	}

	var confidence string
	if m.Confidence != nil {
		confidence = strconv.FormatFloat(*m.Confidence, 'f', -1, 64)
	}

	return []string{
		m.Subject.CURIE(),
		m.Subject.Name,
		m.Predicate.CURIE(),
		string(m.PredicateModifier),
		m.Object.CURIE(),
		m.Object.Name,
		m.Justification.CURIE(),
		strings.Join(authors, AuthorSeparator),
		confidence,
		m.MappingTool,
	}
}

// RowError locates a malformed row; Line is the 1-based line in the file
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Decode reads a mapping file. Columns are matched by name so optional
// columns may be absent.
func Decode(r io.Reader) (Header, []model.SemanticMapping, error) {
	br := bufio.NewReader(r)

	var meta bytes.Buffer
	metaLines := 0
	for {
		b, err := br.Peek(1)
		if err != nil || b[0] != '#' {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return Header{}, nil, fmt.Errorf("read header: %w", err)
		}
		metaLines++
		meta.WriteString(strings.TrimPrefix(line, "#"))
		if err == io.EOF {
			break
		}
	}

	var h Header
	if meta.Len() > 0 {
		if err := yaml.Unmarshal(meta.Bytes(), &h); err != nil {
			return Header{}, nil, fmt.Errorf("parse header: %w", err)
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	names, err := cr.Read()
	if err == io.EOF {
		return h, nil, nil
	}
	if err != nil {
		return Header{}, nil, fmt.Errorf("read columns: %w", err)
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return Header{}, nil, fmt.Errorf("missing column %q", name)
		}
	}

	var out []model.SemanticMapping
	for line := metaLines + 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Header{}, nil, &RowError{Line: line, Err: err}
		}
		m, err := parseRow(record, index)
		if err != nil {
			return Header{}, nil, &RowError{Line: line, Err: err}
		}
		out = append(out, m)
	}
	return h, out, nil
}

func parseRow(record []string, index map[string]int) (model.SemanticMapping, error) {
	raw := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	get := func(name string) string {
		return strings.TrimSpace(raw(name))
	}

	var m model.SemanticMapping
	var err error
	if m.Subject, err = model.ParseCURIE(get("subject_id")); err != nil {
		return m, fmt.Errorf("subject: %w", err)
	}
	if m.Predicate, err = model.ParseCURIE(get("predicate_id")); err != nil {
		return m, fmt.Errorf("predicate: %w", err)
	}
	if m.Object, err = model.ParseCURIE(get("object_id")); err != nil {
		return m, fmt.Errorf("object: %w", err)
	}
	if m.Justification, err = model.ParseCURIE(get("mapping_justification")); err != nil {
		return m, fmt.Errorf("justification: %w", err)
	}
	// labels are free text and kept verbatim
	m.Subject.Name = raw("subject_label")
	m.Object.Name = raw("object_label")
	m.PredicateModifier = model.PredicateModifier(get("predicate_modifier"))
	m.MappingTool = get("mapping_tool")

	if authors := get("author_id"); authors != "" {
		for _, a := range strings.Split(authors, AuthorSeparator) {
			ref, err := model.ParseCURIE(a)
			if err != nil {
				return m, fmt.Errorf("author: %w", err)
			}
			m.Authors = append(m.Authors, ref)
		}
	}

	if c := get("confidence"); c != "" {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return m, fmt.Errorf("confidence: %w", err)
		}
		m.Confidence = &v
	}

	return m, m.Validate()
}

// ReadFile decodes a mapping file; a missing file is an empty set
func ReadFile(path string) ([]model.SemanticMapping, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	_, ms, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return ms, nil
}

// WriteFile encodes a mapping file through a temp file and rename
func WriteFile(path string, h Header, ms []model.SemanticMapping) error {
	tmp, err := stage(path, h, ms)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// stage writes content next to path and returns the temp file name
func stage(path string, h Header, ms []model.SemanticMapping) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}

	if err := Encode(tmp, h, ms); err != nil {
		return fail(fmt.Errorf("encode %s: %w", filepath.Base(path), err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync %s: %w", tmp.Name(), err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	return tmp.Name(), nil
}
