package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/ankulpolara/face-attend/internal/database"
	"github.com/ankulpolara/face-attend/internal/embedding"
)

// EmployeesHandler handles employee CRUD and enrollment.
type EmployeesHandler struct {
	store    database.EmployeeStore
	provider embedding.Provider
	index    *database.GalleryIndex
	dim      int
}

// NewEmployeesHandler creates a new employees handler. The provider may be
// nil when no embedding backend is configured (descriptor-only enrollment);
// the index may be nil when the gallery is too small to index.
func NewEmployeesHandler(store database.EmployeeStore, provider embedding.Provider, index *database.GalleryIndex, dim int) *EmployeesHandler {
	return &EmployeesHandler{
		store:    store,
		provider: provider,
		index:    index,
		dim:      dim,
	}
}

// List returns all employees, or a name search when ?q= is present.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		employees []database.Employee
		err       error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		employees, err = h.store.SearchByName(r.Context(), q)
	} else {
		employees, err = h.store.List(r.Context())
	}
	if err != nil {
		log.Printf("Failed to list employees: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	out := make([]employeeJSON, 0, len(employees))
	for i := range employees {
		out = append(out, toEmployeeJSON(&employees[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"employees": out})
}

// Get returns a single employee.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	e, err := h.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get employee %d: %v", id, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if e == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}
	respondJSON(w, http.StatusOK, toEmployeeJSON(e))
}

type employeeRequest struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Descriptor []float32 `json:"descriptor"`
}

func (h *EmployeesHandler) validate(req *employeeRequest) string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if strings.TrimSpace(req.Email) == "" {
		return "email is required"
	}
	if len(req.Descriptor) > 0 && len(req.Descriptor) != h.dim {
		return "descriptor has wrong dimensionality"
	}
	return ""
}

// Create adds a new employee, optionally enrolled with a descriptor.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := h.validate(&req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.store.GetByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("Failed to check email: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}

	e := database.Employee{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Department: strings.TrimSpace(req.Department),
		Embedding:  req.Descriptor,
	}
	id, err := h.store.Create(r.Context(), &e)
	if err != nil {
		log.Printf("Failed to create employee: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	e.ID = id
	h.indexAdd(&e)

	log.Printf("Created employee %d (%s)", id, sanitizeForLog(e.Name))
	respondJSON(w, http.StatusCreated, toEmployeeJSON(&e))
}

// Update replaces an employee's profile fields and, when a descriptor is
// given, their enrollment.
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if msg := h.validate(&req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	current, err := h.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get employee %d: %v", id, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if current == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	other, err := h.store.GetByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("Failed to check email: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if other != nil && other.ID != id {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}

	e := database.Employee{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Department: strings.TrimSpace(req.Department),
		Embedding:  req.Descriptor,
	}
	if err := h.store.Update(r.Context(), &e); err != nil {
		log.Printf("Failed to update employee %d: %v", id, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if len(e.Embedding) == 0 {
		e.Embedding = current.Embedding
	}
	e.CreatedAt = current.CreatedAt
	h.indexAdd(&e)

	respondJSON(w, http.StatusOK, toEmployeeJSON(&e))
}

// Enroll sets the employee's face embedding from a descriptor or an image.
func (h *EmployeesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	e, err := h.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get employee %d: %v", id, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if e == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	descriptor, ok := captureDescriptor(w, r, h.provider)
	if !ok {
		return
	}
	if len(descriptor) != h.dim {
		respondError(w, http.StatusBadRequest, "descriptor has wrong dimensionality")
		return
	}

	if err := h.store.SetEmbedding(r.Context(), id, descriptor); err != nil {
		log.Printf("Failed to enroll employee %d: %v", id, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	e.Embedding = descriptor
	h.indexAdd(e)

	log.Printf("Enrolled employee %d (%s)", id, sanitizeForLog(e.Name))
	respondJSON(w, http.StatusOK, toEmployeeJSON(e))
}

// Delete removes an employee; their sessions cascade away with them.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	e, err := h.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get employee %d: %v", id, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if e == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		log.Printf("Failed to delete employee %d: %v", id, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if h.index != nil {
		h.index.Remove(id)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *EmployeesHandler) indexAdd(e *database.Employee) {
	if h.index == nil || !e.Enrolled() {
		return
	}
	if err := h.index.Add(e); err != nil {
		log.Printf("Failed to index employee %d: %v", e.ID, err)
	}
}
