package model

// Xref is a known cross-reference between two entities, as reported by an
// external knowledge source
type Xref struct {
	Subject Reference `json:"subject"`
	Object  Reference `json:"object"`
}
