package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ankulpolara/face-attend/internal/config"
	"github.com/ankulpolara/face-attend/internal/database/mock"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Embedding:  config.EmbeddingConfig{Dim: 4},
		Attendance: config.AttendanceConfig{Timezone: "UTC", Threshold: 0.6},
		Web:        config.WebConfig{APIToken: "test-token"},
	}
	stores := Stores{
		Employees: mock.NewMockEmployeeStore(),
		Sessions:  mock.NewMockLedgerStore(),
	}
	return NewServer(cfg, 8080, "127.0.0.1", stores, nil)
}

func TestHealthCheckNeedsNoToken(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAPIRoutesRequireToken(t *testing.T) {
	s := testServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/employees"},
		{http.MethodGet, "/api/v1/attendance"},
		{http.MethodGet, "/api/v1/stats"},
		{http.MethodGet, "/api/v1/config"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", p.method, p.path, rec.Code)
		}

		req = httptest.NewRequest(p.method, p.path, nil)
		req.Header.Set("Authorization", "Bearer test-token")
		rec = httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code == http.StatusUnauthorized {
			t.Errorf("%s %s: expected access with token, got 401", p.method, p.path)
		}
	}
}
