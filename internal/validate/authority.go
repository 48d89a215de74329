package validate

import (
	"strings"

	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/store"
)

// AuthorTier ranks how well an author reference is attested
type AuthorTier int

const (
	// AuthorInvalid is not an ORCID, or fails its checksum
	AuthorInvalid AuthorTier = iota
	// AuthorUnregistered is a valid ORCID missing from the curators table
	AuthorUnregistered
	// AuthorRegistered is listed in the curators table
	AuthorRegistered
)

func (t AuthorTier) String() string {
	switch t {
	case AuthorRegistered:
		return "registered"
	case AuthorUnregistered:
		return "unregistered"
	default:
		return "invalid"
	}
}

// AuthorityClassifier classifies mapping authors against the curators table
type AuthorityClassifier struct {
	curators map[string]store.Curator
}

// NewAuthorityClassifier indexes curators by ORCID
func NewAuthorityClassifier(curators []store.Curator) *AuthorityClassifier {
	a := &AuthorityClassifier{curators: make(map[string]store.Curator, len(curators))}
	for _, c := range curators {
		a.curators[c.ORCID] = c
	}
	return a
}

// Classify returns the tier of an author reference
func (a *AuthorityClassifier) Classify(ref model.Reference) AuthorTier {
	if ref.Prefix != model.AuthorPrefix || !ValidORCID(ref.Identifier) {
		return AuthorInvalid
	}
	if _, ok := a.curators[ref.Identifier]; ok {
		return AuthorRegistered
	}
	return AuthorUnregistered
}

// Curator returns the curators table entry for an author
func (a *AuthorityClassifier) Curator(ref model.Reference) (store.Curator, bool) {
	if ref.Prefix != model.AuthorPrefix {
		return store.Curator{}, false
	}
	c, ok := a.curators[ref.Identifier]
	return c, ok
}

// ValidORCID checks the 0000-0000-0000-000X layout and the ISO 7064 11,2
// check digit
func ValidORCID(id string) bool {
	digits := strings.ReplaceAll(id, "-", "")
	if len(id) != 19 || len(digits) != 16 {
		return false
	}
	for _, pos := range []int{4, 9, 14} {
		if id[pos] != '-' {
			return false
		}
	}

	total := 0
	for _, c := range digits[:15] {
		if c < '0' || c > '9' {
			return false
		}
		total = (total + int(c-'0')) * 2
	}
	check := (12 - total%11) % 11

	last := digits[15]
	if check == 10 {
		return last == 'X'
	}
	return last == byte('0'+check)
}
