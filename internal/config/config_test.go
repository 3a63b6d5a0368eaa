package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://indexer.mainnet.movementnetwork.xyz/v1/graphql", cfg.IndexerGraphQLURL)
	assert.Equal(t, "https://mainnet.movementnetwork.xyz/v1", cfg.FullnodeURL)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.PriceAPIURL)
	assert.Equal(t, DefaultGateways, cfg.IPFSGateways)
	assert.Equal(t, "exports-to-run", cfg.ExportsTopic)
	assert.Equal(t, "export-workers", cfg.ConsumerGroup)
	assert.Equal(t, 1, cfg.WorkerConcurrency)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.WSEnabled)
	assert.Equal(t, 25, cfg.WSMaxRetries)
	assert.Equal(t, time.Second, cfg.WSReconnectDelay)
}

func TestLoad_RequiresRedis(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("INDEXER_GRAPHQL_URL", "http://localhost:8090/v1/graphql")
	t.Setenv("FULLNODE_URL", "http://localhost:8091/v1")
	t.Setenv("IPFS_GATEWAYS", " https://gw1/ipfs/ , https://gw2/ipfs/ ,")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("WS_ENABLED", "true")
	t.Setenv("WS_MAX_RETRIES", "3")
	t.Setenv("WS_RECONNECT_DELAY", "500ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8090/v1/graphql", cfg.IndexerGraphQLURL)
	assert.Equal(t, []string{"https://gw1/ipfs/", "https://gw2/ipfs/"}, cfg.IPFSGateways)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.True(t, cfg.WSEnabled)
	assert.Equal(t, 3, cfg.WSMaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.WSReconnectDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTPAddr)

	// A listener without its own URL follows the fullnode.
	assert.Equal(t, "http://localhost:8091/v1", cfg.WSURL)
}

func TestLoad_WorkerConcurrencyMustBePositive(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("WORKER_CONCURRENCY", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.WorkerConcurrency)
}

func TestLoad_ExplicitWSURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("WS_ENABLED", "1")
	t.Setenv("WS_URL", "wss://stream.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wss://stream.example.com", cfg.WSURL)
}
