package export

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

// jobPayload is the wire form of an export request on the stream.
type jobPayload struct {
	JobID         string `json:"job_id"`
	WalletAddress string `json:"wallet_address"`
}

// Publisher publishes export jobs to Redis Streams.
type Publisher struct {
	pub   message.Publisher
	topic string
}

// NewPublisher creates a new Publisher.
func NewPublisher(redisClient redis.UniversalClient, topic string) (*Publisher, error) {
	logger := watermill.NewSlogLogger(nil)

	pub, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{pub: pub, topic: topic}, nil
}

// PublishJob enqueues an export job.
func (p *Publisher) PublishJob(ctx context.Context, job Job) error {
	start := time.Now()

	payload, err := json.Marshal(jobPayload{
		JobID:         job.ID,
		WalletAddress: job.WalletAddress,
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	err = p.pub.Publish(p.topic, msg)
	duration := time.Since(start)

	if err != nil {
		slog.Error("export publish failed",
			"job_id", job.ID,
			"wallet", job.WalletAddress,
			"duration_ms", duration.Milliseconds(),
			"err", err,
		)
		return err
	}

	slog.Info("export publish ok",
		"job_id", job.ID,
		"wallet", job.WalletAddress,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// Close closes the publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}
