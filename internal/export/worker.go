package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/NileDex/moveportfolio-sub000/internal/wallet"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

// blobTTL is how long a finished CSV stays downloadable.
const blobTTL = time.Hour

// History is the full-history fetch the worker runs per job.
type History interface {
	FetchAll(ctx context.Context, addr string, progress func(pct int)) ([]wallet.TransactionRecord, error)
}

// Config configures the export worker.
type Config struct {
	RedisClient   redis.UniversalClient
	History       History
	Jobs          *JobStore
	Topic         string
	ConsumerGroup string
	Concurrency   int
}

// blobStore is the slice of the Redis client the worker stores CSVs
// through.
type blobStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Worker consumes export jobs from Redis Streams, fetches the wallet's
// complete history off the request path, and stores the serialized CSV in
// Redis for download. Each job runs exactly once: failures are recorded on
// the job and acked, never redelivered.
type Worker struct {
	router  *message.Router
	history History
	jobs    *JobStore
	blobs   blobStore
}

// NewWorker creates a new Worker.
func NewWorker(cfg Config) (*Worker, error) {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	logger := watermill.NewSlogLogger(nil)

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		router:  router,
		history: cfg.History,
		jobs:    cfg.Jobs,
		blobs:   cfg.RedisClient,
	}

	// One subscriber per slot; the consumer group splits the stream
	// across them.
	for i := 0; i < cfg.Concurrency; i++ {
		sub, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        cfg.RedisClient,
				ConsumerGroup: cfg.ConsumerGroup,
			},
			logger,
		)
		if err != nil {
			return nil, err
		}

		router.AddNoPublisherHandler(
			fmt.Sprintf("run-export-%d", i),
			cfg.Topic,
			sub,
			w.handleJob,
		)
	}

	return w, nil
}

// handleJob processes a single export job message.
func (w *Worker) handleJob(msg *message.Message) error {
	start := time.Now()

	var payload jobPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.JobID == "" {
		slog.Warn("export worker invalid payload",
			"msg_uuid", msg.UUID,
			"len", len(msg.Payload),
		)
		return nil // ack invalid messages to avoid infinite retry
	}

	if _, ok := w.jobs.Get(payload.JobID); !ok {
		// Job from a previous process; its in-memory state is gone.
		slog.Warn("export worker unknown job", "job_id", payload.JobID)
		return nil
	}

	slog.Info("export start",
		"job_id", payload.JobID,
		"wallet", payload.WalletAddress,
	)
	w.jobs.SetProcessing(payload.JobID)

	ctx := context.Background()
	records, err := w.history.FetchAll(ctx, payload.WalletAddress, func(pct int) {
		w.jobs.SetProgress(payload.JobID, pct)
	})
	if err != nil {
		w.fail(payload.JobID, "failed to fetch transaction history", err, start)
		return nil
	}

	csv := MarshalCSV(records)
	if err := w.blobs.Set(ctx, BlobKey(payload.JobID), csv, blobTTL).Err(); err != nil {
		w.fail(payload.JobID, "failed to store export", err, start)
		return nil
	}

	w.jobs.Complete(payload.JobID, "/api/exports/"+payload.JobID+"/download")

	slog.Info("export done",
		"job_id", payload.JobID,
		"wallet", payload.WalletAddress,
		"rows", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (w *Worker) fail(jobID, msg string, err error, start time.Time) {
	w.jobs.Fail(jobID, msg)
	slog.Error("export failed",
		"job_id", jobID,
		"duration_ms", time.Since(start).Milliseconds(),
		"err", err,
	)
}

// Run starts the worker. It blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.router.Run(ctx)
}

// Close closes the worker.
func (w *Worker) Close() error {
	return w.router.Close()
}

// BlobKey is the Redis key holding a finished CSV.
func BlobKey(jobID string) string {
	return "export:csv:" + jobID
}
