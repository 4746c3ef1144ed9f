package handlers

import (
	"net/http"

	"github.com/isdelr/eventhub-be/internal/services"
)

// StatsHandler serves dashboard statistics.
type StatsHandler struct {
	service services.StatsServiceProvider
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(service services.StatsServiceProvider) *StatsHandler {
	return &StatsHandler{service: service}
}

// Get returns the current statistics.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStats(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
