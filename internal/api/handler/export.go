package handler

import (
	"errors"
	"net/http"

	"github.com/NileDex/moveportfolio-sub000/internal/export"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HandleExportCreate enqueues a CSV export for a wallet. A wallet with an
// export still in flight gets 409; the client keeps its export control
// disabled until the job reaches a terminal state.
func (h *Handler) HandleExportCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WalletAddress == "" {
		h.writeError(w, http.StatusBadRequest, "wallet_address is required")
		return
	}

	job, err := h.Jobs.Create(req.WalletAddress)
	if err != nil {
		if errors.Is(err, export.ErrExportInFlight) {
			h.writeError(w, http.StatusConflict, "export already in progress for this wallet")
			return
		}
		h.Logger.Error("failed to create export job", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to create export")
		return
	}

	if err := h.Publisher.PublishJob(r.Context(), job); err != nil {
		h.Jobs.Fail(job.ID, "failed to enqueue export")
		h.Logger.Error("failed to publish export job", zap.Error(err), zap.String("job_id", job.ID))
		h.writeError(w, http.StatusInternalServerError, "failed to enqueue export")
		return
	}

	h.Logger.Info("export job created",
		zap.String("job_id", job.ID),
		zap.String("wallet", job.WalletAddress),
	)
	h.writeJSON(w, http.StatusAccepted, job)
}

// HandleExportStatus returns the job's current state and progress
func (h *Handler) HandleExportStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, ok := h.Jobs.Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "export not found")
		return
	}

	h.writeJSON(w, http.StatusOK, job)
}

// HandleExportDownload streams the finished CSV as an attachment
func (h *Handler) HandleExportDownload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, ok := h.Jobs.Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "export not found")
		return
	}
	if job.Status != export.StatusCompleted {
		h.writeError(w, http.StatusConflict, "export is not completed")
		return
	}

	csv, err := h.Redis.Get(r.Context(), export.BlobKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			h.writeError(w, http.StatusGone, "export expired")
			return
		}
		h.Logger.Error("failed to load export blob", zap.Error(err), zap.String("job_id", id))
		h.writeError(w, http.StatusInternalServerError, "failed to load export")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(job.WalletAddress)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}
