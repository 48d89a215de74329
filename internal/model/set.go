package model

import (
	"errors"
	"fmt"
)

// ErrUnknownSet is returned for a set name outside the four known sets
var ErrUnknownSet = errors.New("unknown mapping set")

// SetName identifies one of the four persisted mapping sets
type SetName string

const (
	SetPositive  SetName = "positive"  // Accepted curations
	SetNegative  SetName = "negative"  // Rejected curations
	SetUnsure    SetName = "unsure"    // Curator could not decide
	SetPredicted SetName = "predicted" // Machine-generated candidates awaiting review
)

// AllSets lists every set in validation order
var AllSets = []SetName{SetPositive, SetNegative, SetUnsure, SetPredicted}

// CuratedSets lists the sets that hold human decisions
var CuratedSets = []SetName{SetPositive, SetNegative, SetUnsure}

// IsCurated reports whether the set holds human decisions
func (s SetName) IsCurated() bool {
	return s == SetPositive || s == SetNegative || s == SetUnsure
}

// ParseSetName validates a set name
func ParseSetName(name string) (SetName, error) {
	switch s := SetName(name); s {
	case SetPositive, SetNegative, SetUnsure, SetPredicted:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSet, name)
}
