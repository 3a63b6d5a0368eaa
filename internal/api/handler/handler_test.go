package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/NileDex/moveportfolio-sub000/internal/chain"
	"github.com/NileDex/moveportfolio-sub000/internal/export"
	"github.com/NileDex/moveportfolio-sub000/internal/wallet"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	published []export.Job
	err       error
}

func (f *fakePublisher) PublishJob(ctx context.Context, job export.Job) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

type fakeBlobSource struct {
	data map[string]string
}

func (f *fakeBlobSource) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

type fakeLedger struct {
	total uint64
}

func (f *fakeLedger) Account(ctx context.Context, addr string) (chain.AccountInfo, error) {
	if f.total == 0 {
		return chain.AccountInfo{}, &chain.NotFoundError{ErrorCode: "account_not_found", Message: "nope"}
	}
	return chain.AccountInfo{SequenceNumber: json.Number(strconv.FormatUint(f.total, 10))}, nil
}

func (f *fakeLedger) AccountTransactions(ctx context.Context, addr string, start uint64, limit int) ([]chain.TransactionEntry, error) {
	entries := make([]chain.TransactionEntry, 0, limit)
	for i := 0; i < limit; i++ {
		entries = append(entries, chain.TransactionEntry{
			Version: json.Number(strconv.FormatUint(start+uint64(i), 10)),
			Hash:    "0xh",
			Success: true,
		})
	}
	return entries, nil
}

func newTestHandler() (*Handler, *fakePublisher, *fakeBlobSource) {
	pub := &fakePublisher{}
	blobs := &fakeBlobSource{data: make(map[string]string)}
	h := &Handler{
		Logger:    zap.NewNop(),
		Pager:     wallet.NewPager(&fakeLedger{total: 25}),
		Jobs:      export.NewJobStore(),
		Publisher: pub,
		Redis:     blobs,
	}
	return h, pub, blobs
}

func doRequest(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.NewRouter().ServeHTTP(w, r)
	return w
}

func TestHandleHealth(t *testing.T) {
	h, _, _ := newTestHandler()
	w := doRequest(h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandleWalletTransactions(t *testing.T) {
	h, _, _ := newTestHandler()
	w := doRequest(h, http.MethodGet, "/api/accounts/0xabc/transactions?page=2&page_size=20", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page wallet.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, uint64(25), page.Total)
	assert.Equal(t, uint64(2), page.TotalPages)
	assert.Len(t, page.Records, 5)
}

func TestHandleWalletTransactions_BadParams(t *testing.T) {
	h, _, _ := newTestHandler()

	w := doRequest(h, http.MethodGet, "/api/accounts/0xabc/transactions?page=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(h, http.MethodGet, "/api/accounts/0xabc/transactions?page_size=9000", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExportCreate(t *testing.T) {
	h, pub, _ := newTestHandler()

	w := doRequest(h, http.MethodPost, "/api/exports", `{"wallet_address":"0xabc"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var job export.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, export.StatusPending, job.Status)
	require.Len(t, pub.published, 1)
	assert.Equal(t, job.ID, pub.published[0].ID)
}

func TestHandleExportCreate_MissingWallet(t *testing.T) {
	h, _, _ := newTestHandler()

	w := doRequest(h, http.MethodPost, "/api/exports", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(h, http.MethodPost, "/api/exports", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExportCreate_InFlight(t *testing.T) {
	h, _, _ := newTestHandler()

	w := doRequest(h, http.MethodPost, "/api/exports", `{"wallet_address":"0xabc"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(h, http.MethodPost, "/api/exports", `{"wallet_address":"0xabc"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleExportCreate_PublishFailure(t *testing.T) {
	h, pub, _ := newTestHandler()
	pub.err = fmt.Errorf("stream down")

	w := doRequest(h, http.MethodPost, "/api/exports", `{"wallet_address":"0xabc"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// The job must end terminal so the wallet can retry.
	jobs := h.Jobs.List()
	require.Len(t, jobs, 1)
	assert.Equal(t, export.StatusFailed, jobs[0].Status)
}

func TestHandleExportStatus(t *testing.T) {
	h, _, _ := newTestHandler()
	job, err := h.Jobs.Create("0xabc")
	require.NoError(t, err)
	h.Jobs.SetProgress(job.ID, 60)

	w := doRequest(h, http.MethodGet, "/api/exports/"+job.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got export.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 60, got.Progress)

	w = doRequest(h, http.MethodGet, "/api/exports/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleExportDownload(t *testing.T) {
	h, _, blobs := newTestHandler()
	job, err := h.Jobs.Create("0xabc")
	require.NoError(t, err)
	h.Jobs.Complete(job.ID, "/api/exports/"+job.ID+"/download")
	blobs.data[export.BlobKey(job.ID)] = "version,hash\n1,0xh\n"

	w := doRequest(h, http.MethodGet, "/api/exports/"+job.ID+"/download", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="transactions_0xabc.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "version,hash\n1,0xh\n", w.Body.String())
}

func TestHandleExportDownload_NotReady(t *testing.T) {
	h, _, _ := newTestHandler()
	job, err := h.Jobs.Create("0xabc")
	require.NoError(t, err)

	w := doRequest(h, http.MethodGet, "/api/exports/"+job.ID+"/download", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleExportDownload_Expired(t *testing.T) {
	h, _, _ := newTestHandler()
	job, err := h.Jobs.Create("0xabc")
	require.NoError(t, err)
	h.Jobs.Complete(job.ID, "/api/exports/"+job.ID+"/download")

	// Completed job, but the blob's TTL has run out.
	w := doRequest(h, http.MethodGet, "/api/exports/"+job.ID+"/download", "")
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestLimitParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 25},
		{"?limit=10", 10},
		{"?limit=9000", 100},
		{"?limit=0", 25},
		{"?limit=abc", 25},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/transactions"+tt.query, nil)
		assert.Equal(t, tt.want, limitParam(r, 25, 100), tt.query)
	}
}
