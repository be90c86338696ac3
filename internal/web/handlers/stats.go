package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ankulpolara/face-attend/internal/database"
)

const statsCacheTTL = 30 * time.Second

// statsCache holds cached stats with expiry. Kiosk dashboards poll this
// endpoint, so counts are cached briefly.
type statsCache struct {
	mu        sync.RWMutex
	data      *StatsResponse
	expiresAt time.Time
}

func (c *statsCache) get() (*StatsResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *statsCache) set(data *StatsResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.expiresAt = time.Now().Add(statsCacheTTL)
}

func (c *statsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}

// StatsHandler handles the statistics endpoint.
type StatsHandler struct {
	employees database.EmployeeStore
	sessions  database.LedgerStore
	loc       *time.Location
	cache     statsCache
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(employees database.EmployeeStore, sessions database.LedgerStore, loc *time.Location) *StatsHandler {
	return &StatsHandler{
		employees: employees,
		sessions:  sessions,
		loc:       loc,
	}
}

// InvalidateCache clears the cached stats so the next request fetches fresh data.
func (h *StatsHandler) InvalidateCache() {
	h.cache.invalidate()
}

// StatsResponse represents the statistics response.
type StatsResponse struct {
	Date          string `json:"date"`
	Employees     int    `json:"employees"`
	Enrolled      int    `json:"enrolled"`
	SessionsToday int    `json:"sessions_today"`
	OpenNow       int    `json:"open_now"`
}

// Get returns counters for the current civil day.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.get(); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	ctx := r.Context()
	today := database.CivilDateOf(time.Now(), h.loc)

	total, err := h.employees.Count(ctx)
	if err != nil {
		log.Printf("Failed to count employees: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	enrolled, err := h.employees.CountEnrolled(ctx)
	if err != nil {
		log.Printf("Failed to count enrolled employees: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	sessionsToday, err := h.sessions.CountOnDay(ctx, today)
	if err != nil {
		log.Printf("Failed to count sessions: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	openNow, err := h.sessions.CountOpen(ctx, today)
	if err != nil {
		log.Printf("Failed to count open sessions: %v", err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	stats := &StatsResponse{
		Date:          string(today),
		Employees:     total,
		Enrolled:      enrolled,
		SessionsToday: sessionsToday,
		OpenNow:       openNow,
	}
	h.cache.set(stats)
	respondJSON(w, http.StatusOK, stats)
}
