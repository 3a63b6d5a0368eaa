package handler

import (
	"context"
	"net/http"

	"github.com/NileDex/moveportfolio-sub000/internal/export"
	"github.com/NileDex/moveportfolio-sub000/internal/indexer"
	"github.com/NileDex/moveportfolio-sub000/internal/nft"
	"github.com/NileDex/moveportfolio-sub000/internal/price"
	"github.com/NileDex/moveportfolio-sub000/internal/wallet"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// JobPublisher enqueues export jobs onto the stream.
type JobPublisher interface {
	PublishJob(ctx context.Context, job export.Job) error
}

// BlobSource is the slice of the Redis client the download handler reads
// finished CSVs from.
type BlobSource interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Handler holds the dependencies for API handlers
type Handler struct {
	Logger    *zap.Logger
	Indexer   *indexer.Client
	Price     *price.Client
	Pager     *wallet.Pager
	Portfolio *wallet.PortfolioBuilder
	Resolver  *nft.Resolver
	Jobs      *export.JobStore
	Publisher JobPublisher
	Redis     BlobSource
}

// NewRouter creates and configures the HTTP router with all API routes
func (h *Handler) NewRouter() *mux.Router {
	r := mux.NewRouter()

	// Public health check endpoint
	r.HandleFunc("/api/health", h.HandleHealth).Methods(http.MethodGet)

	// Dashboard metric cards
	r.HandleFunc("/api/metrics/overview", h.HandleMetricsOverview).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics/network", h.HandleNetworkMetrics).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics/stake", h.HandleStakeMetrics).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics/epoch", h.HandleEpochMetrics).Methods(http.MethodGet)
	r.HandleFunc("/api/price", h.HandlePrice).Methods(http.MethodGet)

	// Explorer lists
	r.HandleFunc("/api/transactions", h.HandleLatestTransactions).Methods(http.MethodGet)
	r.HandleFunc("/api/blocks", h.HandleLatestBlocks).Methods(http.MethodGet)
	r.HandleFunc("/api/validators", h.HandleValidators).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts/top", h.HandleTopAccounts).Methods(http.MethodGet)
	r.HandleFunc("/api/packages", h.HandlePackages).Methods(http.MethodGet)
	r.HandleFunc("/api/activity", h.HandleActivity).Methods(http.MethodGet)
	r.HandleFunc("/api/tokens/{assetType}", h.HandleTokenInfo).Methods(http.MethodGet)

	// Wallet views
	r.HandleFunc("/api/accounts/{address}/transactions", h.HandleWalletTransactions).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts/{address}/portfolio", h.HandlePortfolio).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts/{address}/nfts", h.HandleWalletNfts).Methods(http.MethodGet)

	// CSV exports
	r.HandleFunc("/api/exports", h.HandleExportCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/exports/{id}", h.HandleExportStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/exports/{id}/download", h.HandleExportDownload).Methods(http.MethodGet)

	return r
}

// HandleHealth returns a simple health check response
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
