package wallet

import (
	"context"
	"fmt"
	"math"

	"github.com/NileDex/moveportfolio-sub000/internal/indexer"
	"github.com/NileDex/moveportfolio-sub000/internal/price"
)

// moveAssetType is the native coin's asset type on Movement.
const moveAssetType = "0x1::aptos_coin::AptosCoin"

// CoinSource is the slice of the indexer client the portfolio consumes.
type CoinSource interface {
	AccountCoins(ctx context.Context, owner string) ([]indexer.CoinBalance, error)
}

// PriceSource provides the MOVE quote.
type PriceSource interface {
	Current(ctx context.Context) price.Data
}

// PortfolioItem is one asset position. ValueUSD is unavailable for assets
// without a known quote; unvalued positions never poison the total.
type PortfolioItem struct {
	indexer.CoinBalance
	ValueUSD indexer.OptFloat `json:"value_usd"`
}

// Portfolio is the account's net-worth breakdown.
type Portfolio struct {
	Address       string           `json:"address"`
	TotalValueUSD indexer.OptFloat `json:"total_value_usd"`
	Items         []PortfolioItem  `json:"items"`
}

// PortfolioBuilder assembles net-worth breakdowns from coin balances and
// the MOVE quote.
type PortfolioBuilder struct {
	coins  CoinSource
	prices PriceSource
}

// NewPortfolioBuilder creates a portfolio builder.
func NewPortfolioBuilder(coins CoinSource, prices PriceSource) *PortfolioBuilder {
	return &PortfolioBuilder{coins: coins, prices: prices}
}

// Build returns the portfolio for addr. Only MOVE carries a quote; other
// assets are listed with an unavailable value.
func (b *PortfolioBuilder) Build(ctx context.Context, addr string) (Portfolio, error) {
	balances, err := b.coins.AccountCoins(ctx, addr)
	if err != nil {
		return Portfolio{}, fmt.Errorf("fetch coin balances: %w", err)
	}

	quote := b.prices.Current(ctx)

	out := Portfolio{
		Address:       addr,
		TotalValueUSD: indexer.Unavailable(),
		Items:         make([]PortfolioItem, 0, len(balances)),
	}

	total := 0.0
	valued := false
	for _, bal := range balances {
		item := PortfolioItem{
			CoinBalance: bal,
			ValueUSD:    indexer.Unavailable(),
		}
		if bal.AssetType == moveAssetType && quote.USD > 0 {
			units := float64(bal.Amount) / math.Pow10(bal.Decimals)
			item.ValueUSD = indexer.OptFloat(units * quote.USD)
			total += units * quote.USD
			valued = true
		}
		out.Items = append(out.Items, item)
	}

	if valued {
		out.TotalValueUSD = indexer.OptFloat(total)
	}
	return out, nil
}
