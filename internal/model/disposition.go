package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDisposition is returned for an unrecognized curator verdict
var ErrInvalidDisposition = errors.New("invalid disposition")

// Disposition is a curator's verdict on a predicted mapping
type Disposition string

const (
	Correct   Disposition = "correct"
	Incorrect Disposition = "incorrect"
	Unsure    Disposition = "unsure"
	Broad     Disposition = "broad"  // Prediction is too broad; the narrow relation holds
	Narrow    Disposition = "narrow" // Prediction is too narrow; the broad relation holds
)

var dispositionSynonyms = map[string]Disposition{
	"correct":      Correct,
	"yup":          Correct,
	"yes":          Correct,
	"true":         Correct,
	"t":            Correct,
	"right":        Correct,
	"close enough": Correct,
	"incorrect":    Incorrect,
	"no":           Incorrect,
	"nope":         Incorrect,
	"false":        Incorrect,
	"f":            Incorrect,
	"nada":         Incorrect,
	"nein":         Incorrect,
	"negative":     Incorrect,
	"negatory":     Incorrect,
	"unsure":       Unsure,
	"maybe":        Unsure,
	"idk":          Unsure,
	"broad":        Broad,
	"broader":      Broad,
	"narrow":       Narrow,
	"narrower":     Narrow,
}

// ParseDisposition accepts the canonical names and their common synonyms
func ParseDisposition(value string) (Disposition, error) {
	if d, ok := dispositionSynonyms[strings.ToLower(strings.TrimSpace(value))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDisposition, value)
}

// Valid reports whether d is one of the five dispositions
func (d Disposition) Valid() bool {
	switch d {
	case Correct, Incorrect, Unsure, Broad, Narrow:
		return true
	}
	return false
}

// Destination is the curated set a mapping with this disposition lands in
func (d Disposition) Destination() SetName {
	switch d {
	case Incorrect:
		return SetNegative
	case Unsure:
		return SetUnsure
	default:
		return SetPositive
	}
}
