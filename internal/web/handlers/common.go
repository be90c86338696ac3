package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ankulpolara/face-attend/internal/constants"
	"github.com/ankulpolara/face-attend/internal/database"
	"github.com/ankulpolara/face-attend/internal/embedding"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// employeeJSON is the wire form of an employee. The raw embedding never
// leaves the service.
type employeeJSON struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department,omitempty"`
	Enrolled   bool      `json:"enrolled"`
	CreatedAt  time.Time `json:"created_at"`
}

func toEmployeeJSON(e *database.Employee) employeeJSON {
	return employeeJSON{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Department: e.Department,
		Enrolled:   e.Enrolled(),
		CreatedAt:  e.CreatedAt,
	}
}

// sessionJSON is the wire form of an attendance session.
type sessionJSON struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	Date       string     `json:"date"`
	CheckIn    *time.Time `json:"check_in"`
	CheckOut   *time.Time `json:"check_out"`
}

func toSessionJSON(s *database.AttendanceSession) *sessionJSON {
	if s == nil {
		return nil
	}
	return &sessionJSON{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		Date:       string(s.Date),
		CheckIn:    s.CheckIn,
		CheckOut:   s.CheckOut,
	}
}

// captureDescriptor extracts a face descriptor from the request: either a
// JSON body with a "descriptor" array, or a multipart form with an "image"
// file routed through the embedding provider. The bool result distinguishes
// client errors (true, message already written) from provider faults.
func captureDescriptor(w http.ResponseWriter, r *http.Request, provider embedding.Provider) ([]float32, bool) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return descriptorFromImage(w, r, provider)
	}

	var req struct {
		Descriptor []float32 `json:"descriptor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return nil, false
	}
	if len(req.Descriptor) == 0 {
		respondError(w, http.StatusBadRequest, "descriptor or image is required")
		return nil, false
	}
	return req.Descriptor, true
}

func descriptorFromImage(w http.ResponseWriter, r *http.Request, provider embedding.Provider) ([]float32, bool) {
	if provider == nil {
		respondError(w, http.StatusServiceUnavailable, "embedding provider not configured")
		return nil, false
	}
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read image")
		return nil, false
	}
	if len(data) > constants.MaxUploadSize {
		respondError(w, http.StatusRequestEntityTooLarge, "image too large")
		return nil, false
	}

	resized, err := embedding.ResizeImage(data, constants.MaxImageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not decode image")
		return nil, false
	}

	descriptor, err := provider.ExtractFace(r.Context(), resized)
	switch {
	case errors.Is(err, embedding.ErrNoFaceFound):
		respondError(w, http.StatusUnprocessableEntity, "no face found in image")
		return nil, false
	case errors.Is(err, embedding.ErrMultipleFaces):
		respondError(w, http.StatusUnprocessableEntity, "more than one face in image")
		return nil, false
	case errors.Is(err, embedding.ErrProviderUnavailable):
		respondError(w, http.StatusServiceUnavailable, "embedding provider unavailable")
		return nil, false
	case err != nil:
		respondError(w, http.StatusBadGateway, "face extraction failed")
		return nil, false
	}
	return descriptor, true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
