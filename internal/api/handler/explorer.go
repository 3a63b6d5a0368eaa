package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// limitParam parses ?limit= with a default and an upper bound.
func limitParam(r *http.Request, def, max int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// HandleLatestTransactions returns the most recent user transactions
func (h *Handler) HandleLatestTransactions(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Indexer.LatestTransactions(r.Context(), limitParam(r, 25, 100))
	if err != nil {
		h.Logger.Error("failed to fetch latest transactions", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "failed to fetch transactions")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

// HandleLatestBlocks returns the most recent blocks
func (h *Handler) HandleLatestBlocks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Indexer.LatestBlocks(r.Context(), limitParam(r, 25, 100))
	if err != nil {
		h.Logger.Error("failed to fetch latest blocks", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "failed to fetch blocks")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

// HandleValidators returns the staking pools with balances
func (h *Handler) HandleValidators(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Indexer.Validators(r.Context())
	if err != nil {
		h.Logger.Error("failed to fetch validators", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "failed to fetch validators")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

// HandleTopAccounts returns the largest MOVE balances
func (h *Handler) HandleTopAccounts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Indexer.TopAccounts(r.Context(), limitParam(r, 25, 100))
	if err != nil {
		h.Logger.Error("failed to fetch top accounts", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "failed to fetch accounts")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

// HandlePackages returns recently deployed Move packages
func (h *Handler) HandlePackages(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Indexer.RecentPackages(r.Context(), limitParam(r, 25, 100))
	if err != nil {
		h.Logger.Error("failed to fetch packages", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "failed to fetch packages")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

// HandleActivity returns the daily transaction count series
// Query param: ?days=7 (1-30)
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}

	points, err := h.Indexer.ActivitySeries(r.Context(), days)
	if err != nil {
		h.Logger.Error("failed to fetch activity series", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "failed to fetch activity")
		return
	}
	h.writeJSON(w, http.StatusOK, points)
}

// HandleTokenInfo returns fungible asset metadata
func (h *Handler) HandleTokenInfo(w http.ResponseWriter, r *http.Request) {
	assetType := mux.Vars(r)["assetType"]

	info, err := h.Indexer.TokenInfo(r.Context(), assetType)
	if err != nil {
		h.Logger.Error("failed to fetch token info", zap.Error(err), zap.String("asset_type", assetType))
		h.writeError(w, http.StatusBadGateway, "failed to fetch token info")
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}
