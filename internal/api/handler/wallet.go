package handler

import (
	"net/http"
	"strconv"

	"github.com/NileDex/moveportfolio-sub000/internal/wallet"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HandleWalletTransactions returns one newest-first page of an account's
// history. Query params: ?page=1&page_size=20. Refetching the same page is
// idempotent, so the client's retry control can simply re-request.
func (h *Handler) HandleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	pageSize := wallet.DefaultPageSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			h.writeError(w, http.StatusBadRequest, "invalid page_size")
			return
		}
		pageSize = n
	}

	result, err := h.Pager.FetchPage(r.Context(), address, page, pageSize)
	if err != nil {
		h.Logger.Error("failed to fetch wallet transactions",
			zap.Error(err),
			zap.String("address", address),
			zap.Int("page", page),
		)
		h.writeError(w, http.StatusBadGateway, "failed to fetch transactions")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandlePortfolio returns the account's net-worth breakdown
func (h *Handler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	portfolio, err := h.Portfolio.Build(r.Context(), address)
	if err != nil {
		h.Logger.Error("failed to build portfolio", zap.Error(err), zap.String("address", address))
		h.writeError(w, http.StatusBadGateway, "failed to fetch portfolio")
		return
	}

	h.writeJSON(w, http.StatusOK, portfolio)
}

// HandleWalletNfts returns the account's token ownerships with resolved
// image URLs. Tokens whose metadata yields no image keep an empty
// image_url and render the local placeholder.
func (h *Handler) HandleWalletNfts(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	items, err := h.Indexer.AccountNfts(r.Context(), address)
	if err != nil {
		h.Logger.Error("failed to fetch nfts", zap.Error(err), zap.String("address", address))
		h.writeError(w, http.StatusBadGateway, "failed to fetch nfts")
		return
	}

	images := h.Resolver.ResolveMany(r.Context(), items)
	for i := range items {
		items[i].ImageURL = images[items[i].TokenDataID]
	}

	h.writeJSON(w, http.StatusOK, items)
}
