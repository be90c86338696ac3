package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/ankulpolara/face-attend/internal/constants"
	"github.com/ankulpolara/face-attend/internal/database"
	"github.com/ankulpolara/face-attend/internal/embedding"
	"github.com/ankulpolara/face-attend/internal/recognizer"
)

// NearestFinder is implemented by stores that can shortlist the gallery in
// SQL by vector distance. The Postgres store does; the shortlist still goes
// through the exact re-rank in the resolver.
type NearestFinder interface {
	FindNearest(ctx context.Context, query []float32, k int) ([]database.Employee, error)
}

// IdentifyHandler resolves a face capture against the enrollment gallery.
type IdentifyHandler struct {
	gallery   database.GalleryReader
	provider  embedding.Provider
	index     *database.GalleryIndex
	threshold float64
	dim       int
}

// NewIdentifyHandler creates a new identify handler. When the index is set
// and large enough it shortlists candidates; the resolver always re-ranks
// with the exact metric.
func NewIdentifyHandler(gallery database.GalleryReader, provider embedding.Provider, index *database.GalleryIndex, threshold float64, dim int) *IdentifyHandler {
	return &IdentifyHandler{
		gallery:   gallery,
		provider:  provider,
		index:     index,
		threshold: threshold,
		dim:       dim,
	}
}

// identifyResponse is the identification result. Employee is only set on a
// match; Reason explains a no-match.
type identifyResponse struct {
	Matched    bool          `json:"matched"`
	Employee   *employeeJSON `json:"employee,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Distance   float64       `json:"distance,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// Identify resolves the capture in the request body to an enrolled employee.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	descriptor, ok := captureDescriptor(w, r, h.provider)
	if !ok {
		return
	}
	// Checked before the store sees the vector; a mismatched query would
	// otherwise surface as a SQL error on the distance shortlist.
	if len(descriptor) != h.dim {
		respondError(w, http.StatusBadRequest, "descriptor has wrong dimensionality")
		return
	}

	candidates, err := h.candidates(r.Context(), descriptor)
	if err != nil {
		log.Printf("Failed to load gallery: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	resolution, err := recognizer.Resolve(descriptor, candidates, h.threshold)
	if errors.Is(err, recognizer.ErrInvalidQuery) {
		respondError(w, http.StatusBadRequest, "descriptor has wrong dimensionality")
		return
	}
	if err != nil {
		log.Printf("Resolution failed: %v", err)
		respondError(w, http.StatusInternalServerError, "identification failed")
		return
	}

	if !resolution.Matched {
		respondJSON(w, http.StatusOK, identifyResponse{
			Matched: false,
			Reason:  string(resolution.Reason),
		})
		return
	}

	respondJSON(w, http.StatusOK, identifyResponse{
		Matched: true,
		Employee: &employeeJSON{
			ID:       resolution.EmployeeID,
			Name:     resolution.Name,
			Enrolled: true,
		},
		Confidence: resolution.Confidence,
		Distance:   resolution.Distance,
	})
}

// candidates returns the gallery to resolve against. Preference order: the
// in-memory index when one is built and large enough, then a SQL distance
// shortlist when the store supports it, then a full scan. A shortlist can
// only be trusted when the gallery is non-empty, so the empty case always
// goes through the store.
func (h *IdentifyHandler) candidates(ctx context.Context, query []float32) ([]recognizer.Candidate, error) {
	if h.index != nil && h.index.Len() >= constants.GalleryIndexMinSize {
		shortlist, err := h.index.Shortlist(query, constants.GalleryShortlistSize)
		if err == nil && len(shortlist) > 0 {
			// Restore id order so distance ties break the same way as a
			// full scan.
			sort.Slice(shortlist, func(i, j int) bool {
				return shortlist[i].EmployeeID < shortlist[j].EmployeeID
			})
			return shortlist, nil
		}
		log.Printf("Gallery index shortlist unavailable, falling back to store: %v", err)
	}

	var employees []database.Employee
	var err error
	if nf, ok := h.gallery.(NearestFinder); ok {
		employees, err = nf.FindNearest(ctx, query, constants.GalleryShortlistSize)
	} else {
		employees, err = h.gallery.ListEnrolled(ctx)
	}
	if err != nil {
		return nil, err
	}

	// FindNearest orders by distance; restore id order for tie-breaks.
	sort.Slice(employees, func(i, j int) bool {
		return employees[i].ID < employees[j].ID
	})

	candidates := make([]recognizer.Candidate, 0, len(employees))
	for i := range employees {
		e := &employees[i]
		candidates = append(candidates, recognizer.Candidate{
			EmployeeID: e.ID,
			Name:       e.Name,
			Embedding:  e.Embedding,
		})
	}
	return candidates, nil
}
