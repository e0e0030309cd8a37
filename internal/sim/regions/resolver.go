package regions

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoRegion = errors.New("no region at location")

// AmbiguousError reports two candidates neither of which overrides the other.
type AmbiguousError struct {
	A, B string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous region: %s and %s", e.A, e.B)
}

// Candidate is an area overlapping a location, as reported by the geometry
// provider.
type Candidate struct {
	ID       string
	Priority int
	Parent   string
}

// Resolve picks the single authoritative candidate. A later candidate
// replaces the running best when its priority is strictly higher or when it
// is a direct child of the best. Any other pair is ambiguous. The result
// depends on the order the provider reports candidates in.
func Resolve(cands []Candidate) (Candidate, error) {
	if len(cands) == 0 {
		return Candidate{}, ErrNoRegion
	}
	best := cands[0]
	for _, c := range cands[1:] {
		switch {
		case c.Priority > best.Priority:
			best = c
		case c.Parent != "" && strings.EqualFold(c.Parent, best.ID):
			best = c
		default:
			return Candidate{}, &AmbiguousError{A: best.ID, B: c.ID}
		}
	}
	return best, nil
}
