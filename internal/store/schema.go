package store

import (
	"errors"
	"fmt"

	"github.com/ppiankov/biomap/internal/model"
)

// ErrSchema is wrapped by every SchemaError
var ErrSchema = errors.New("schema violation")

// SchemaError reports a record that does not fit its target set
type SchemaError struct {
	Set      model.SetName
	Position int
	Field    string
	Reason   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s set, record %d: %s %s", e.Set, e.Position, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// CheckRecord validates one mapping against the rules of its set
func CheckRecord(set model.SetName, position int, m model.SemanticMapping) error {
	violation := func(field, reason string) error {
		return &SchemaError{Set: set, Position: position, Field: field, Reason: reason}
	}

	if err := m.Validate(); err != nil {
		return violation("record", err.Error())
	}

	if set == model.SetPredicted {
		switch {
		case m.Confidence == nil:
			return violation("confidence", "is required")
		case len(m.Authors) > 0:
			return violation("author_id", "must be empty")
		case m.MappingTool == "":
			return violation("mapping_tool", "is required")
		case m.IsManual():
			return violation("mapping_justification", "cannot be manual curation")
		}
		return nil
	}

	switch {
	case len(m.Authors) == 0:
		return violation("author_id", "is required")
	case m.Confidence != nil:
		return violation("confidence", "must be empty")
	}
	return nil
}

// CheckSchema validates every record and returns the first violation
func CheckSchema(set model.SetName, ms []model.SemanticMapping) error {
	if _, err := model.ParseSetName(string(set)); err != nil {
		return err
	}
	for i, m := range ms {
		if err := CheckRecord(set, i, m); err != nil {
			return err
		}
	}
	return nil
}
