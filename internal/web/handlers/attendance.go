package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ankulpolara/face-attend/internal/attendance"
	"github.com/ankulpolara/face-attend/internal/constants"
	"github.com/ankulpolara/face-attend/internal/database"
)

// AttendanceHandler handles attendance recording and listing.
type AttendanceHandler struct {
	ledger    *attendance.Ledger
	store     database.LedgerStore
	employees database.EmployeeStore
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(ledger *attendance.Ledger, store database.LedgerStore, employees database.EmployeeStore) *AttendanceHandler {
	return &AttendanceHandler{
		ledger:    ledger,
		store:     store,
		employees: employees,
	}
}

type recordRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Action     string `json:"action"`
	Timestamp  string `json:"timestamp,omitempty"` // RFC 3339; defaults to now
}

// recordResponse reports the ledger outcome. Rejections come back with the
// same shape and a reason, they are user guidance rather than errors.
type recordResponse struct {
	Outcome string       `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
	Session *sessionJSON `json:"session,omitempty"`
}

// Record applies a check-in or check-out for an employee.
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	action, err := attendance.ParseAction(req.Action)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ts := time.Now()
	if req.Timestamp != "" {
		ts, err = time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid timestamp, use RFC 3339")
			return
		}
	}

	e, err := h.employees.Get(r.Context(), req.EmployeeID)
	if err != nil {
		log.Printf("Failed to get employee %d: %v", req.EmployeeID, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if e == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	outcome, err := h.ledger.Apply(r.Context(), req.EmployeeID, action, ts)
	if errors.Is(err, attendance.ErrInvalidInput) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, database.ErrInconsistentState) {
		log.Printf("Inconsistent ledger state for employee %d: %v", req.EmployeeID, err)
		respondError(w, http.StatusConflict, "attendance records are inconsistent, contact an administrator")
		return
	}
	if err != nil {
		log.Printf("Failed to record attendance for employee %d: %v", req.EmployeeID, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	status := http.StatusOK
	if outcome.Rejected() {
		status = http.StatusConflict
	}
	respondJSON(w, status, recordResponse{
		Outcome: string(outcome.Kind),
		Reason:  string(outcome.Reason),
		Session: toSessionJSON(outcome.Session),
	})
}

// recordJSON is the wire form of a listed attendance row.
type recordJSON struct {
	sessionJSON
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department,omitempty"`
}

// List returns attendance sessions restricted by the query filters:
// date, from, to (YYYY-MM-DD) and employee_id.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	preds, ok := listPredicates(w, r)
	if !ok {
		return
	}

	limit := constants.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.store.List(r.Context(), database.NewAttendanceFilter(preds...), limit)
	if err != nil {
		log.Printf("Failed to list attendance: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	out := make([]recordJSON, 0, len(records))
	for i := range records {
		rec := &records[i]
		out = append(out, recordJSON{
			sessionJSON:  *toSessionJSON(&rec.AttendanceSession),
			EmployeeName: rec.EmployeeName,
			Department:   rec.Department,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": out})
}

func listPredicates(w http.ResponseWriter, r *http.Request) ([]database.AttendancePredicate, bool) {
	q := r.URL.Query()
	var preds []database.AttendancePredicate

	parseDay := func(param string) (database.CivilDate, bool) {
		v := q.Get(param)
		if v == "" {
			return "", true
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			respondError(w, http.StatusBadRequest, "invalid "+param+" date, use YYYY-MM-DD")
			return "", false
		}
		return database.CivilDate(v), true
	}

	day, ok := parseDay("date")
	if !ok {
		return nil, false
	}
	if day != "" {
		preds = append(preds, database.OnDate(day))
	}
	from, ok := parseDay("from")
	if !ok {
		return nil, false
	}
	if from != "" {
		preds = append(preds, database.FromDate(from))
	}
	to, ok := parseDay("to")
	if !ok {
		return nil, false
	}
	if to != "" {
		preds = append(preds, database.UntilDate(to))
	}

	if v := q.Get("employee_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			respondError(w, http.StatusBadRequest, "invalid employee_id")
			return nil, false
		}
		preds = append(preds, database.ForEmployee(id))
	}

	return preds, true
}
