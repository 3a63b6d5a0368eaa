// Package price fetches the MOVE spot price from the public price API,
// falling back to a last-known-good snapshot so the dashboard never blocks
// on a pricing outage.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/NileDex/moveportfolio-sub000/internal/cache"
)

const priceTTL = 60 * time.Second

// Data is the MOVE price snapshot used across the dashboard.
type Data struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
	MarketCap float64 `json:"usd_market_cap"`
	Volume24h float64 `json:"usd_24h_vol"`
}

// fallback is the last-known-good snapshot returned on any failure.
var fallback = Data{
	USD:       0.45,
	Change24h: 0,
	MarketCap: 1_100_000_000,
	Volume24h: 38_000_000,
}

// Client fetches MOVE price data.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
}

// New creates a price client rooted at baseURL (e.g. the coingecko v3 API).
func New(baseURL string, c *cache.Cache) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   c,
	}
}

// Current returns the MOVE price, cached for a minute. It never returns an
// error: failures are logged and the fallback snapshot is returned.
func (c *Client) Current(ctx context.Context) Data {
	d, err := cache.Fetch(ctx, c.cache, cache.Key("price", "movement"), priceTTL, func(ctx context.Context) (Data, error) {
		d, err := c.fetch(ctx)
		if err != nil {
			slog.Warn("price fetch failed, using fallback", "err", err)
			// The fallback is cached too, so a hard outage does not
			// hammer the endpoint once per render.
			return fallback, nil
		}
		return d, nil
	})
	if err != nil {
		return fallback
	}
	return d
}

func (c *Client) fetch(ctx context.Context) (Data, error) {
	url := c.baseURL + "/simple/price?ids=movement&vs_currencies=usd&include_24hr_change=true&include_market_cap=true&include_24hr_vol=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Data{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Data{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Data{}, fmt.Errorf("price http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Data{}, err
	}

	var payload struct {
		Movement Data `json:"movement"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Data{}, fmt.Errorf("price json unmarshal: %w", err)
	}
	if payload.Movement.USD == 0 {
		return Data{}, fmt.Errorf("price response missing movement quote")
	}
	return payload.Movement, nil
}
