package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/NileDex/moveportfolio-sub000/internal/wallet"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	records []wallet.TransactionRecord
	err     error
}

func (f *fakeHistory) FetchAll(ctx context.Context, addr string, progress func(pct int)) ([]wallet.TransactionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if progress != nil {
		progress(50)
		progress(100)
	}
	return f.records, nil
}

type fakeBlobs struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeBlobs) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func jobMessage(t *testing.T, jobID, walletAddress string) *message.Message {
	t.Helper()
	payload, err := json.Marshal(jobPayload{JobID: jobID, WalletAddress: walletAddress})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestHandleJob_Success(t *testing.T) {
	jobs := NewJobStore()
	job, err := jobs.Create("0xabc")
	require.NoError(t, err)

	blobs := newFakeBlobs()
	w := &Worker{
		history: &fakeHistory{records: []wallet.TransactionRecord{
			{Version: 2, Type: "Transfer", Sender: "0xabc", Status: "Success", Hash: "0x2"},
			{Version: 1, Type: "Transaction", Sender: "0xabc", Status: "Success", Hash: "0x1"},
		}},
		jobs:  jobs,
		blobs: blobs,
	}

	require.NoError(t, w.handleJob(jobMessage(t, job.ID, job.WalletAddress)))

	got, ok := jobs.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "/api/exports/"+job.ID+"/download", got.DownloadURL)

	csv := blobs.data[BlobKey(job.ID)]
	assert.True(t, strings.HasPrefix(csv, strings.Join(csvHeader, ",")))
	assert.Contains(t, csv, "0x2")
	assert.Equal(t, time.Hour, blobs.ttls[BlobKey(job.ID)])
}

func TestHandleJob_HistoryFailure(t *testing.T) {
	jobs := NewJobStore()
	job, err := jobs.Create("0xabc")
	require.NoError(t, err)

	w := &Worker{
		history: &fakeHistory{err: fmt.Errorf("fullnode down")},
		jobs:    jobs,
		blobs:   newFakeBlobs(),
	}

	// The handler acks failed jobs so they never redeliver.
	require.NoError(t, w.handleJob(jobMessage(t, job.ID, job.WalletAddress)))

	got, _ := jobs.Get(job.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "failed to fetch transaction history", got.Error)
}

func TestHandleJob_BlobStoreFailure(t *testing.T) {
	jobs := NewJobStore()
	job, err := jobs.Create("0xabc")
	require.NoError(t, err)

	blobs := newFakeBlobs()
	blobs.err = fmt.Errorf("redis down")
	w := &Worker{
		history: &fakeHistory{},
		jobs:    jobs,
		blobs:   blobs,
	}

	require.NoError(t, w.handleJob(jobMessage(t, job.ID, job.WalletAddress)))

	got, _ := jobs.Get(job.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "failed to store export", got.Error)
}

func TestHandleJob_InvalidPayload(t *testing.T) {
	w := &Worker{jobs: NewJobStore(), blobs: newFakeBlobs()}

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	require.NoError(t, w.handleJob(msg), "garbage messages are acked, not retried")

	msg = message.NewMessage(watermill.NewUUID(), []byte(`{"wallet_address":"0xabc"}`))
	require.NoError(t, w.handleJob(msg), "messages without a job id are acked")
}

func TestHandleJob_UnknownJob(t *testing.T) {
	blobs := newFakeBlobs()
	w := &Worker{jobs: NewJobStore(), history: &fakeHistory{}, blobs: blobs}

	require.NoError(t, w.handleJob(jobMessage(t, "stale-id", "0xabc")))
	assert.Empty(t, blobs.data, "jobs from a previous process are dropped")
}

func TestBlobKey(t *testing.T) {
	assert.Equal(t, "export:csv:abc", BlobKey("abc"))
}
