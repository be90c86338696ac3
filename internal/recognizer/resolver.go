// Package recognizer resolves a face descriptor against the gallery of
// enrolled employees. Resolution is a pure function over a gallery snapshot:
// it performs no I/O and may run with unlimited concurrency.
package recognizer

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery reports a query vector whose dimensionality does not match
// the gallery. This is a caller contract violation, not a failed match.
var ErrInvalidQuery = errors.New("query vector dimension mismatch")

// NoMatchReason explains why resolution produced no identity.
type NoMatchReason string

const (
	// EmptyGallery means nobody is enrolled yet.
	EmptyGallery NoMatchReason = "empty_gallery"
	// NoCandidateWithinThreshold means the nearest candidate was too far away.
	NoCandidateWithinThreshold NoMatchReason = "no_candidate_within_threshold"
)

// Candidate is one enrolled employee's embedding in the gallery snapshot.
type Candidate struct {
	EmployeeID int64
	Name       string
	Embedding  []float32
}

// Resolution is the outcome of a resolve call. When Matched is false, Reason
// carries the no-match explanation; a no-match is a normal result, not an
// error.
type Resolution struct {
	Matched    bool
	EmployeeID int64
	Name       string
	Distance   float64
	Confidence float64
	Reason     NoMatchReason
}

// Resolve finds the nearest gallery candidate to the query descriptor and
// accepts it when its distance is strictly below threshold. Ties are broken
// by gallery iteration order, so callers wanting reproducible results must
// supply a stable ordering (stores list candidates by employee id).
//
// Confidence is 1-distance. It assumes the provider's metric stays roughly
// within [0,1]; out-of-range distances are passed through without clamping,
// so treat confidence as a relative ranking rather than a probability.
func Resolve(query []float32, gallery []Candidate, threshold float64) (Resolution, error) {
	if len(gallery) == 0 {
		return Resolution{Reason: EmptyGallery}, nil
	}

	best := -1
	bestDistance := 0.0
	for i := range gallery {
		c := &gallery[i]
		if len(c.Embedding) != len(query) {
			return Resolution{}, fmt.Errorf("%w: query has %d dimensions, gallery entry %d has %d",
				ErrInvalidQuery, len(query), c.EmployeeID, len(c.Embedding))
		}
		d := EuclideanDistance(query, c.Embedding)
		if best == -1 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	if bestDistance >= threshold {
		return Resolution{Reason: NoCandidateWithinThreshold, Distance: bestDistance}, nil
	}

	c := &gallery[best]
	return Resolution{
		Matched:    true,
		EmployeeID: c.EmployeeID,
		Name:       c.Name,
		Distance:   bestDistance,
		Confidence: 1 - bestDistance,
	}, nil
}
