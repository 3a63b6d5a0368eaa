package indexer

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/NileDex/moveportfolio-sub000/internal/cache"
)

// Raw row shapes as the indexer returns them. Hasura serializes large
// numerics as strings, so amounts decode through json.Number.

type rawUserTransaction struct {
	Version       uint64 `json:"version"`
	Sender        string `json:"sender"`
	EntryFunction string `json:"entry_function_id_str"`
	Timestamp     string `json:"timestamp"`
}

type rawBlockMetadataTransaction struct {
	BlockHeight uint64          `json:"block_height"`
	Version     uint64          `json:"version"`
	Epoch       json.RawMessage `json:"epoch"`
	Round       json.RawMessage `json:"round"`
	Proposer    string          `json:"proposer"`
	Timestamp   string          `json:"timestamp"`
}

type rawBalance struct {
	OwnerAddress string      `json:"owner_address"`
	Amount       json.Number `json:"amount"`
}

type rawStakingPool struct {
	StakingPoolAddress string `json:"staking_pool_address"`
	CurrentStakingPool *struct {
		OperatorAddress string      `json:"operator_address"`
		TotalCoins      json.Number `json:"total_coins"`
	} `json:"current_staking_pool"`
}

type rawTokenOwnership struct {
	TokenDataID      string      `json:"token_data_id"`
	OwnerAddress     string      `json:"owner_address"`
	Amount           json.Number `json:"amount"`
	CurrentTokenData *struct {
		TokenName         string `json:"token_name"`
		TokenURI          string `json:"token_uri"`
		CurrentCollection *struct {
			CollectionName string `json:"collection_name"`
		} `json:"current_collection"`
	} `json:"current_token_data"`
}

type rawCoinBalance struct {
	AssetType string      `json:"asset_type"`
	Amount    json.Number `json:"amount"`
	Metadata  *struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	} `json:"metadata"`
}

// LatestTransactions returns the most recent user transactions, newest
// first, cached for the fast TTL.
func (c *Client) LatestTransactions(ctx context.Context, limit int) ([]TransactionRow, error) {
	key := cache.Key("txs", "latest", strconv.Itoa(limit))
	return cache.Fetch(ctx, c.cache, key, ttlFast, func(ctx context.Context) ([]TransactionRow, error) {
		var data struct {
			Rows []rawUserTransaction `json:"user_transactions"`
		}
		if err := c.Query(ctx, latestTransactionsQuery, map[string]any{"limit": limit}, &data); err != nil {
			return nil, err
		}

		rows := make([]TransactionRow, 0, len(data.Rows))
		for _, r := range data.Rows {
			rows = append(rows, TransactionRow{
				Version:       r.Version,
				Sender:        r.Sender,
				EntryFunction: r.EntryFunction,
				Timestamp:     r.Timestamp,
			})
		}
		return rows, nil
	})
}

// LatestBlocks returns the most recent block-metadata transactions, newest
// first, cached for the fast TTL.
func (c *Client) LatestBlocks(ctx context.Context, limit int) ([]BlockRow, error) {
	key := cache.Key("blocks", "latest", strconv.Itoa(limit))
	return cache.Fetch(ctx, c.cache, key, ttlFast, func(ctx context.Context) ([]BlockRow, error) {
		var data struct {
			Rows []rawBlockMetadataTransaction `json:"block_metadata_transactions"`
		}
		if err := c.Query(ctx, latestBlocksQuery, map[string]any{"limit": limit}, &data); err != nil {
			return nil, err
		}

		rows := make([]BlockRow, 0, len(data.Rows))
		for _, r := range data.Rows {
			rows = append(rows, BlockRow{
				Height:    r.BlockHeight,
				Version:   r.Version,
				Epoch:     rawNumberString(r.Epoch),
				Round:     rawNumberString(r.Round),
				Proposer:  r.Proposer,
				Timestamp: r.Timestamp,
			})
		}
		return rows, nil
	})
}

// TopAccounts returns the largest MOVE balances.
func (c *Client) TopAccounts(ctx context.Context, limit int) ([]AccountRow, error) {
	key := cache.Key("accounts", "top", strconv.Itoa(limit))
	return cache.Fetch(ctx, c.cache, key, ttlSlow, func(ctx context.Context) ([]AccountRow, error) {
		var data struct {
			Rows []rawBalance `json:"current_fungible_asset_balances"`
		}
		if err := c.Query(ctx, topAccountsQuery, map[string]any{"limit": limit}, &data); err != nil {
			return nil, err
		}

		rows := make([]AccountRow, 0, len(data.Rows))
		for _, r := range data.Rows {
			rows = append(rows, AccountRow{
				Address: r.OwnerAddress,
				Balance: numberToUint64(r.Amount),
			})
		}
		return rows, nil
	})
}

// Validators returns the staking pools with their balances, cached on the
// slow validator TTL.
func (c *Client) Validators(ctx context.Context) ([]ValidatorRow, error) {
	return cache.Fetch(ctx, c.cache, cache.Key("validators"), ttlValidators, func(ctx context.Context) ([]ValidatorRow, error) {
		var data struct {
			Rows []rawStakingPool `json:"delegated_staking_pools"`
		}
		if err := c.Query(ctx, validatorsQuery, nil, &data); err != nil {
			return nil, err
		}

		rows := make([]ValidatorRow, 0, len(data.Rows))
		for _, r := range data.Rows {
			row := ValidatorRow{PoolAddress: r.StakingPoolAddress}
			if r.CurrentStakingPool != nil {
				row.OperatorAddress = r.CurrentStakingPool.OperatorAddress
				row.StakedAmount = numberToUint64(r.CurrentStakingPool.TotalCoins)
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
}

// RecentPackages returns the latest Move package publish transactions.
func (c *Client) RecentPackages(ctx context.Context, limit int) ([]PackageRow, error) {
	key := cache.Key("packages", strconv.Itoa(limit))
	return cache.Fetch(ctx, c.cache, key, ttlSlow, func(ctx context.Context) ([]PackageRow, error) {
		var data struct {
			Rows []rawUserTransaction `json:"user_transactions"`
		}
		if err := c.Query(ctx, recentPackagesQuery, map[string]any{"limit": limit}, &data); err != nil {
			return nil, err
		}

		rows := make([]PackageRow, 0, len(data.Rows))
		for _, r := range data.Rows {
			rows = append(rows, PackageRow{
				Version:   r.Version,
				Publisher: r.Sender,
				Timestamp: r.Timestamp,
			})
		}
		return rows, nil
	})
}

// TokenInfo returns metadata for a fungible asset.
func (c *Client) TokenInfo(ctx context.Context, assetType string) (TokenInfo, error) {
	key := cache.Key("token", assetType)
	return cache.Fetch(ctx, c.cache, key, ttlSlow, func(ctx context.Context) (TokenInfo, error) {
		var data struct {
			Rows []TokenInfo `json:"fungible_asset_metadata"`
		}
		if err := c.Query(ctx, tokenInfoQuery, map[string]any{"assetType": assetType}, &data); err != nil {
			return TokenInfo{}, err
		}
		if len(data.Rows) == 0 {
			return TokenInfo{AssetType: assetType}, nil
		}
		return data.Rows[0], nil
	})
}

// AccountNfts returns the current token ownerships of an account. The
// ImageURL side value is left empty for the resolver to populate.
func (c *Client) AccountNfts(ctx context.Context, owner string) ([]NftOwnership, error) {
	key := cache.Key("nfts", owner)
	return cache.Fetch(ctx, c.cache, key, ttlSlow, func(ctx context.Context) ([]NftOwnership, error) {
		var data struct {
			Rows []rawTokenOwnership `json:"current_token_ownerships_v2"`
		}
		if err := c.Query(ctx, accountNftsQuery, map[string]any{"owner": owner}, &data); err != nil {
			return nil, err
		}

		rows := make([]NftOwnership, 0, len(data.Rows))
		for _, r := range data.Rows {
			row := NftOwnership{
				TokenDataID:  r.TokenDataID,
				OwnerAddress: r.OwnerAddress,
				Amount:       numberToUint64(r.Amount),
			}
			if td := r.CurrentTokenData; td != nil {
				row.TokenName = td.TokenName
				row.TokenURI = td.TokenURI
				if td.CurrentCollection != nil {
					row.CollectionName = td.CurrentCollection.CollectionName
				}
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
}

// AccountCoins returns the fungible asset balances of an account.
func (c *Client) AccountCoins(ctx context.Context, owner string) ([]CoinBalance, error) {
	key := cache.Key("coins", owner)
	return cache.Fetch(ctx, c.cache, key, ttlSlow, func(ctx context.Context) ([]CoinBalance, error) {
		var data struct {
			Rows []rawCoinBalance `json:"current_fungible_asset_balances"`
		}
		if err := c.Query(ctx, accountCoinsQuery, map[string]any{"owner": owner}, &data); err != nil {
			return nil, err
		}

		rows := make([]CoinBalance, 0, len(data.Rows))
		for _, r := range data.Rows {
			row := CoinBalance{
				AssetType: r.AssetType,
				Amount:    numberToUint64(r.Amount),
			}
			if r.Metadata != nil {
				row.Name = r.Metadata.Name
				row.Symbol = r.Metadata.Symbol
				row.Decimals = r.Metadata.Decimals
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
}

func numberToUint64(n json.Number) uint64 {
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// rawNumberString renders a field that may arrive as a JSON number or a
// quoted string.
func rawNumberString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
