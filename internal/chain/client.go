// Package chain is a minimal client for the Movement fullnode REST API,
// covering the account and account-transaction reads the dashboard needs.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// notFoundCode is the fullnode error code for an account with no on-chain
// state.
const notFoundCode = "account_not_found"

// NotFoundError is the typed "account not found" failure. Callers
// special-case it as empty history, not as an error.
type NotFoundError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fullnode: %s: %s", e.ErrorCode, e.Message)
}

// IsNotFound reports whether err is the account-not-found failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Client queries a Movement fullnode.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a fullnode client rooted at baseURL (the /v1 API root).
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Account returns the account resource for addr. An account that has never
// transacted yields a *NotFoundError.
func (c *Client) Account(ctx context.Context, addr string) (AccountInfo, error) {
	var info AccountInfo
	if err := c.getJSON(ctx, "/accounts/"+addr, &info); err != nil {
		return AccountInfo{}, err
	}
	return info, nil
}

// SequenceNumber returns the account's transaction count, with not-found
// normalized to zero.
func (c *Client) SequenceNumber(ctx context.Context, addr string) (uint64, error) {
	info, err := c.Account(ctx, addr)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.ParseUint(info.SequenceNumber.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sequence number %q: %w", info.SequenceNumber, err)
	}
	return n, nil
}

// AccountTransactions returns up to limit committed transactions of addr
// starting at sequence number start, ascending by version.
func (c *Client) AccountTransactions(ctx context.Context, addr string, start uint64, limit int) ([]TransactionEntry, error) {
	path := fmt.Sprintf("/accounts/%s/transactions?start=%d&limit=%d", addr, start, limit)
	var entries []TransactionEntry
	if err := c.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		nf := &NotFoundError{}
		if err := json.Unmarshal(body, nf); err == nil && nf.ErrorCode == notFoundCode {
			return nf
		}
		return fmt.Errorf("fullnode http 404: %s", firstBytes(body))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fullnode http %d: %s", resp.StatusCode, firstBytes(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		slog.Debug("fullnode decode failed", "path", path, "len", len(body))
		return fmt.Errorf("fullnode json unmarshal: %w", err)
	}
	return nil
}

func firstBytes(b []byte) string {
	if len(b) > 200 {
		b = b[:200]
	}
	return string(b)
}
