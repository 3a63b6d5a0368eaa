package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultGateways is the ordered list of public IPFS gateways used for
// NFT metadata resolution, fastest first.
var DefaultGateways = []string{
	"https://cloudflare-ipfs.com/ipfs/",
	"https://ipfs.io/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
	"https://dweb.link/ipfs/",
}

// Config holds all configuration for the explorer service.
type Config struct {

	// Remote data sources
	IndexerGraphQLURL string
	FullnodeURL       string
	PriceAPIURL       string

	// IPFS gateway base URLs for metadata resolution
	IPFSGateways []string

	// Redis
	RedisURL      string
	ExportsTopic  string
	ConsumerGroup string

	// Worker
	WorkerConcurrency int

	// WebSocket ledger-head listener
	WSEnabled        bool
	WSURL            string
	WSMaxRetries     int
	WSReconnectDelay time.Duration

	// Logging
	LogLevel string

	// HTTP API
	HTTPAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		IndexerGraphQLURL: "https://indexer.mainnet.movementnetwork.xyz/v1/graphql",
		FullnodeURL:       "https://mainnet.movementnetwork.xyz/v1",
		PriceAPIURL:       "https://api.coingecko.com/api/v3",
		IPFSGateways:      DefaultGateways,
		ExportsTopic:      "exports-to-run",
		ConsumerGroup:     "export-workers",
		WorkerConcurrency: 1,
		WSMaxRetries:      25,
		WSReconnectDelay:  time.Second,
		LogLevel:          "info",
		HTTPAddr:          ":8080",
	}

	// Required
	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	// Optional overrides
	if v := os.Getenv("INDEXER_GRAPHQL_URL"); v != "" {
		cfg.IndexerGraphQLURL = v
	}

	if v := os.Getenv("FULLNODE_URL"); v != "" {
		cfg.FullnodeURL = v
	}

	if v := os.Getenv("PRICE_API_URL"); v != "" {
		cfg.PriceAPIURL = v
	}

	if v := os.Getenv("IPFS_GATEWAYS"); v != "" {
		gateways := make([]string, 0, 4)
		for _, g := range strings.Split(v, ",") {
			g = strings.TrimSpace(g)
			if g != "" {
				gateways = append(gateways, g)
			}
		}
		if len(gateways) > 0 {
			cfg.IPFSGateways = gateways
		}
	}

	if v := os.Getenv("EXPORTS_TOPIC"); v != "" {
		cfg.ExportsTopic = v
	}

	if v := os.Getenv("CONSUMER_GROUP"); v != "" {
		cfg.ConsumerGroup = v
	}

	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WorkerConcurrency = n
		}
	}

	if v := os.Getenv("WS_ENABLED"); v != "" {
		cfg.WSEnabled = v == "true" || v == "1"
	}

	cfg.WSURL = os.Getenv("WS_URL")

	if v := os.Getenv("WS_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WSMaxRetries = n
		}
	}

	if v := os.Getenv("WS_RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WSReconnectDelay = d
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	// Listener without an explicit URL falls back to the fullnode host
	if cfg.WSEnabled && cfg.WSURL == "" {
		cfg.WSURL = cfg.FullnodeURL
	}

	return cfg, nil
}
