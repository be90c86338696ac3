package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConfigGet(t *testing.T) {
	cfg := testConfig()
	cfg.Web.APIToken = "super-secret"
	cfg.Database.URL = "postgres://user:password@db/attendance"
	h := NewConfigHandler(cfg)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp ConfigResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Timezone != "UTC" {
		t.Errorf("expected UTC, got %q", resp.Timezone)
	}
	if resp.MatchThreshold != 0.6 {
		t.Errorf("expected threshold 0.6, got %v", resp.MatchThreshold)
	}
	if resp.EmbeddingDim != 4 {
		t.Errorf("expected dim 4, got %d", resp.EmbeddingDim)
	}

	// Secrets must never leak into the response.
	body := rec.Body.String()
	for _, secret := range []string{"super-secret", "password"} {
		if strings.Contains(body, secret) {
			t.Errorf("response leaks %q: %s", secret, body)
		}
	}
}
