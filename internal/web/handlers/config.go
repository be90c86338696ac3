package handlers

import (
	"net/http"

	"github.com/ankulpolara/face-attend/internal/config"
)

// ConfigHandler exposes the safe subset of configuration kiosk clients need.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{config: cfg}
}

// ConfigResponse is the public configuration. Connection strings and the API
// token never appear here.
type ConfigResponse struct {
	Timezone       string  `json:"timezone"`
	MatchThreshold float64 `json:"match_threshold"`
	EmbeddingDim   int     `json:"embedding_dim"`
}

// Get returns the public configuration.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Timezone:       h.config.Attendance.Timezone,
		MatchThreshold: h.config.Attendance.Threshold,
		EmbeddingDim:   h.config.Embedding.Dim,
	})
}
