package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"

	"github.com/ankulpolara/face-attend/internal/recognizer"
)

// GalleryIndex wraps an in-memory HNSW graph over the enrollment gallery.
// It only shortlists nearest candidates; the resolver always re-ranks the
// shortlist with the exact metric, so small galleries can skip the index
// entirely and large ones trade a little recall for speed.
//
// The index is rebuilt on enrollment changes (rare, administrative) and read
// concurrently by identify requests.
type GalleryIndex struct {
	graph      *hnsw.Graph[int64]
	candidates map[int64]recognizer.Candidate
	mu         sync.RWMutex
}

// NewGalleryIndex creates a new empty gallery index.
func NewGalleryIndex() *GalleryIndex {
	return &GalleryIndex{
		candidates: make(map[int64]recognizer.Candidate),
	}
}

// Build replaces the index contents with the given employees. Employees
// without an embedding are skipped.
func (g *GalleryIndex) Build(employees []Employee) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(employees) == 0 {
		g.graph = nil
		g.candidates = make(map[int64]recognizer.Candidate)
		return nil
	}

	graph := hnsw.NewGraph[int64]()
	graph.Distance = hnsw.EuclideanDistance

	g.candidates = make(map[int64]recognizer.Candidate, len(employees))
	for i := range employees {
		e := &employees[i]
		if !e.Enrolled() {
			continue
		}
		graph.Add(hnsw.MakeNode(e.ID, e.Embedding))
		g.candidates[e.ID] = recognizer.Candidate{
			EmployeeID: e.ID,
			Name:       e.Name,
			Embedding:  e.Embedding,
		}
	}

	g.graph = graph
	return nil
}

// Add inserts or replaces a single employee in the index.
func (g *GalleryIndex) Add(e *Employee) error {
	if !e.Enrolled() {
		return errors.New("employee has no embedding")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.graph == nil {
		g.graph = hnsw.NewGraph[int64]()
		g.graph.Distance = hnsw.EuclideanDistance
	}
	g.graph.Add(hnsw.MakeNode(e.ID, e.Embedding))
	g.candidates[e.ID] = recognizer.Candidate{
		EmployeeID: e.ID,
		Name:       e.Name,
		Embedding:  e.Embedding,
	}
	return nil
}

// Remove deletes an employee from the index. Missing ids are ignored.
func (g *GalleryIndex) Remove(employeeID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.graph != nil {
		g.graph.Delete(employeeID)
	}
	delete(g.candidates, employeeID)
}

// Shortlist returns up to k nearest candidates to the query, ordered by
// approximate distance. The caller re-ranks them exactly.
func (g *GalleryIndex) Shortlist(query []float32, k int) ([]recognizer.Candidate, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.graph == nil {
		return nil, errors.New("gallery index not built")
	}

	neighbors := g.graph.Search(query, k)
	shortlist := make([]recognizer.Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		if c, ok := g.candidates[n.Key]; ok {
			shortlist = append(shortlist, c)
		}
	}
	return shortlist, nil
}

// Len returns the number of indexed candidates.
func (g *GalleryIndex) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.candidates)
}
