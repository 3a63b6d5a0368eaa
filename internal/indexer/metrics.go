package indexer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/NileDex/moveportfolio-sub000/internal/cache"
	"golang.org/x/sync/errgroup"
)

// hasuraTimestamp is the layout the indexer expects for timestamp variables.
const hasuraTimestamp = "2006-01-02T15:04:05"

type aggregateCount struct {
	Aggregate struct {
		Count int64 `json:"count"`
	} `json:"aggregate"`
}

// NetworkMetrics returns the network statistics card. It never returns an
// error: any field the indexer cannot supply is carried as the unavailable
// sentinel and the failure is logged.
func (c *Client) NetworkMetrics(ctx context.Context) NetworkMetrics {
	m, err := cache.Fetch(ctx, c.cache, cache.Key("metrics", "network"), ttlMetrics, func(ctx context.Context) (NetworkMetrics, error) {
		m := NetworkMetrics{
			LedgerVersion:     Unavailable(),
			TotalTransactions: Unavailable(),
			TotalAccounts:     Unavailable(),
			// The indexer has no rate endpoint; always rendered as N/A.
			TPS: Unavailable(),
		}

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var data struct {
				LedgerInfos []struct {
					ChainID json.Number `json:"chain_id"`
				} `json:"ledger_infos"`
				ProcessorStatus []struct {
					LastSuccessVersion json.Number `json:"last_success_version"`
				} `json:"processor_status"`
			}
			if err := c.Query(gCtx, ledgerInfoQuery, nil, &data); err != nil {
				slog.Warn("ledger info unavailable", "err", err)
				return nil
			}
			if len(data.LedgerInfos) > 0 {
				m.ChainID = data.LedgerInfos[0].ChainID.String()
			}
			if len(data.ProcessorStatus) > 0 {
				if v, err := data.ProcessorStatus[0].LastSuccessVersion.Float64(); err == nil {
					m.LedgerVersion = OptFloat(v)
				}
			}
			return nil
		})

		g.Go(func() error {
			var data struct {
				Transactions aggregateCount `json:"user_transactions_aggregate"`
				Accounts     aggregateCount `json:"account_transactions_aggregate"`
			}
			if err := c.Query(gCtx, totalsQuery, nil, &data); err != nil {
				slog.Warn("network totals unavailable", "err", err)
				return nil
			}
			m.TotalTransactions = OptFloat(data.Transactions.Aggregate.Count)
			m.TotalAccounts = OptFloat(data.Accounts.Aggregate.Count)
			return nil
		})

		_ = g.Wait()
		return m, nil
	})
	if err != nil {
		// Fetch never fails here, but keep the fallback total.
		return NetworkMetrics{
			LedgerVersion:     Unavailable(),
			TotalTransactions: Unavailable(),
			TotalAccounts:     Unavailable(),
			TPS:               Unavailable(),
		}
	}
	return m
}

// StakeMetrics returns staking totals with per-field fallbacks.
func (c *Client) StakeMetrics(ctx context.Context) StakeMetrics {
	m, err := cache.Fetch(ctx, c.cache, cache.Key("metrics", "stake"), ttlSlow, func(ctx context.Context) (StakeMetrics, error) {
		m := StakeMetrics{
			TotalStaked:      Unavailable(),
			ActiveValidators: Unavailable(),
			DelegatorCount:   Unavailable(),
			// Reward rate is not exposed by the indexer; always N/A.
			APY: Unavailable(),
		}

		var data struct {
			Pools      aggregateCount `json:"delegated_staking_pools_aggregate"`
			Delegators aggregateCount `json:"current_delegator_balances_aggregate"`
			PoolRows   []struct {
				CurrentStakingPool *struct {
					TotalCoins json.Number `json:"total_coins"`
				} `json:"current_staking_pool"`
			} `json:"delegated_staking_pools"`
		}
		if err := c.Query(ctx, stakeTotalsQuery, nil, &data); err != nil {
			slog.Warn("stake metrics unavailable", "err", err)
			return m, nil
		}

		m.ActiveValidators = OptFloat(data.Pools.Aggregate.Count)
		m.DelegatorCount = OptFloat(data.Delegators.Aggregate.Count)

		var total float64
		for _, p := range data.PoolRows {
			if p.CurrentStakingPool == nil {
				continue
			}
			if v, err := p.CurrentStakingPool.TotalCoins.Float64(); err == nil {
				total += v
			}
		}
		m.TotalStaked = OptFloat(total)
		return m, nil
	})
	if err != nil {
		return StakeMetrics{
			TotalStaked:      Unavailable(),
			ActiveValidators: Unavailable(),
			DelegatorCount:   Unavailable(),
			APY:              Unavailable(),
		}
	}
	return m
}

// EpochMetrics returns the current epoch card, deriving the average block
// time from the two most recent block-metadata transactions.
func (c *Client) EpochMetrics(ctx context.Context) EpochMetrics {
	m, err := cache.Fetch(ctx, c.cache, cache.Key("metrics", "epoch"), ttlMetrics, func(ctx context.Context) (EpochMetrics, error) {
		m := EpochMetrics{
			CurrentEpoch: Unavailable(),
			LastBlock:    Unavailable(),
			AvgBlockTime: Unavailable(),
			// Epoch boundaries are not exposed by the indexer; always N/A.
			EpochProgress: Unavailable(),
		}

		var data struct {
			Rows []struct {
				BlockHeight uint64          `json:"block_height"`
				Epoch       json.RawMessage `json:"epoch"`
				Timestamp   string          `json:"timestamp"`
			} `json:"block_metadata_transactions"`
		}
		if err := c.Query(ctx, epochQuery, nil, &data); err != nil {
			slog.Warn("epoch metrics unavailable", "err", err)
			return m, nil
		}
		if len(data.Rows) == 0 {
			return m, nil
		}

		if epoch, err := strconv.ParseFloat(rawNumberString(data.Rows[0].Epoch), 64); err == nil {
			m.CurrentEpoch = OptFloat(epoch)
		}
		m.LastBlock = OptFloat(data.Rows[0].BlockHeight)

		if len(data.Rows) == 2 {
			t0, err0 := time.Parse(hasuraTimestamp, data.Rows[1].Timestamp)
			t1, err1 := time.Parse(hasuraTimestamp, data.Rows[0].Timestamp)
			if err0 == nil && err1 == nil && t1.After(t0) {
				m.AvgBlockTime = OptFloat(t1.Sub(t0).Seconds())
			}
		}
		return m, nil
	})
	if err != nil {
		return EpochMetrics{
			CurrentEpoch:  Unavailable(),
			LastBlock:     Unavailable(),
			AvgBlockTime:  Unavailable(),
			EpochProgress: Unavailable(),
		}
	}
	return m
}

// Overview fetches all three metric cards in parallel.
func (c *Client) Overview(ctx context.Context) MetricsOverview {
	var out MetricsOverview

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Network = c.NetworkMetrics(gCtx)
		return nil
	})
	g.Go(func() error {
		out.Stake = c.StakeMetrics(gCtx)
		return nil
	})
	g.Go(func() error {
		out.Epoch = c.EpochMetrics(gCtx)
		return nil
	})
	_ = g.Wait()

	return out
}

// ActivitySeries returns daily transaction counts for the trailing window,
// cached on the long historical TTL. Days is clamped to [1, 30].
func (c *Client) ActivitySeries(ctx context.Context, days int) ([]ActivityPoint, error) {
	if days < 1 {
		days = 1
	}
	if days > 30 {
		days = 30
	}

	key := cache.Key("activity", strconv.Itoa(days))
	return cache.Fetch(ctx, c.cache, key, ttlActivity, func(ctx context.Context) ([]ActivityPoint, error) {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		points := make([]ActivityPoint, 0, days)

		g, gCtx := errgroup.WithContext(ctx)
		results := make([]int64, days)
		for i := 0; i < days; i++ {
			day := today.AddDate(0, 0, -(days - 1 - i))
			idx := i
			g.Go(func() error {
				var data struct {
					Window aggregateCount `json:"user_transactions_aggregate"`
				}
				vars := map[string]any{
					"since": day.Format(hasuraTimestamp),
					"until": day.AddDate(0, 0, 1).Format(hasuraTimestamp),
				}
				if err := c.Query(gCtx, windowTransactionsQuery, vars, &data); err != nil {
					return err
				}
				results[idx] = data.Window.Aggregate.Count
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i := 0; i < days; i++ {
			day := today.AddDate(0, 0, -(days - 1 - i))
			points = append(points, ActivityPoint{
				Date:         day.Format("2006-01-02"),
				Transactions: results[i],
			})
		}
		return points, nil
	})
}
