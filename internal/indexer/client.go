package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/NileDex/moveportfolio-sub000/internal/cache"
)

// Domain TTLs per endpoint class: fast-changing lists, aggregate metrics,
// validator sets, historical series.
const (
	ttlFast       = 15 * time.Second
	ttlMetrics    = 30 * time.Second
	ttlSlow       = 60 * time.Second
	ttlValidators = 5 * time.Minute
	ttlActivity   = 10 * time.Minute
)

// rateLimitBackoff is the fixed delay before the single 429 retry.
const rateLimitBackoff = time.Second

// Client executes GraphQL queries against the Movement indexer. Results
// are cached through the shared TTL cache; callers may hold one Client
// across the process lifetime.
type Client struct {
	url    string
	client *http.Client
	cache  *cache.Cache

	// backoff is replaceable for tests.
	backoff time.Duration
}

// New creates a new indexer client.
func New(url string, c *cache.Cache) *Client {
	return &Client{
		url:     url,
		client:  &http.Client{Timeout: 15 * time.Second},
		cache:   c,
		backoff: rateLimitBackoff,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// Query posts a parameterized GraphQL query and decodes the data payload
// into out. A non-empty errors array is a hard failure surfacing the first
// message. A 429 triggers exactly one retry after a fixed backoff.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	retried := false
	for {
		status, body, err := c.post(ctx, query, variables)
		if err != nil {
			return err
		}

		if status == http.StatusTooManyRequests && !retried {
			retried = true
			slog.Warn("indexer rate limited, retrying", "backoff", c.backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}

		if status < 200 || status >= 300 {
			return fmt.Errorf("indexer http %d", status)
		}

		var resp graphqlResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("indexer json unmarshal: %w", err)
		}
		if len(resp.Errors) > 0 {
			return fmt.Errorf("indexer query error: %s", resp.Errors[0].Message)
		}
		if out != nil {
			if err := json.Unmarshal(resp.Data, out); err != nil {
				return fmt.Errorf("indexer data unmarshal: %w", err)
			}
		}
		return nil
	}
}

func (c *Client) post(ctx context.Context, query string, variables map[string]any) (int, []byte, error) {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}
