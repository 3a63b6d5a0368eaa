package handler

import (
	"net/http"
)

// Metric endpoints always answer 200: unavailable fields arrive as null
// and the dashboard renders "N/A" in their place.

// HandleMetricsOverview returns all three metric cards in one call
func (h *Handler) HandleMetricsOverview(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Indexer.Overview(r.Context()))
}

// HandleNetworkMetrics returns the network statistics card
func (h *Handler) HandleNetworkMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Indexer.NetworkMetrics(r.Context()))
}

// HandleStakeMetrics returns the staking statistics card
func (h *Handler) HandleStakeMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Indexer.StakeMetrics(r.Context()))
}

// HandleEpochMetrics returns the epoch statistics card
func (h *Handler) HandleEpochMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Indexer.EpochMetrics(r.Context()))
}

// HandlePrice returns the MOVE price snapshot (last-known-good on outage)
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Price.Current(r.Context()))
}
