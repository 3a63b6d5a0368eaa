package indexer

import (
	"math"
	"strconv"
)

// OptFloat is a numeric metric field that may be unavailable. Unavailable
// values are carried as NaN internally (matching the sentinel convention of
// the upstream indexer consumers) but serialize as JSON null and format as
// "N/A", so the sentinel never leaks into arithmetic or output.
type OptFloat float64

// Unavailable returns the sentinel for a metric the indexer cannot supply.
func Unavailable() OptFloat {
	return OptFloat(math.NaN())
}

// Available reports whether the field holds a real value.
func (f OptFloat) Available() bool {
	return !math.IsNaN(float64(f))
}

// MarshalJSON renders unavailable values as null, never NaN.
func (f OptFloat) MarshalJSON() ([]byte, error) {
	if !f.Available() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}

// Format renders the field for display, with "N/A" for unavailable values.
func (f OptFloat) Format() string {
	if !f.Available() {
		return "N/A"
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

// NetworkMetrics is the network statistics card on the dashboard. Every
// field is independently unavailable-able; consumers render placeholders.
type NetworkMetrics struct {
	ChainID           string   `json:"chain_id"`
	LedgerVersion     OptFloat `json:"ledger_version"`
	TotalTransactions OptFloat `json:"total_transactions"`
	TotalAccounts     OptFloat `json:"total_accounts"`
	TPS               OptFloat `json:"tps"`
}

// StakeMetrics describes network staking totals.
type StakeMetrics struct {
	TotalStaked      OptFloat `json:"total_staked"`
	ActiveValidators OptFloat `json:"active_validators"`
	DelegatorCount   OptFloat `json:"delegator_count"`
	APY              OptFloat `json:"apy"`
}

// EpochMetrics describes the current epoch.
type EpochMetrics struct {
	CurrentEpoch  OptFloat `json:"current_epoch"`
	LastBlock     OptFloat `json:"last_block"`
	AvgBlockTime  OptFloat `json:"avg_block_time"`
	EpochProgress OptFloat `json:"epoch_progress"`
}

// MetricsOverview bundles the three metric cards plus price for the
// dashboard's single overview call.
type MetricsOverview struct {
	Network NetworkMetrics `json:"network"`
	Stake   StakeMetrics   `json:"stake"`
	Epoch   EpochMetrics   `json:"epoch"`
}

// TransactionRow is a row of the latest-transactions list.
type TransactionRow struct {
	Version       uint64 `json:"version"`
	Sender        string `json:"sender"`
	EntryFunction string `json:"entry_function"`
	Timestamp     string `json:"timestamp"`
}

// BlockRow is a row of the latest-blocks list, sourced from block-metadata
// transactions.
type BlockRow struct {
	Height    uint64 `json:"height"`
	Version   uint64 `json:"version"`
	Epoch     string `json:"epoch"`
	Round     string `json:"round"`
	Proposer  string `json:"proposer"`
	Timestamp string `json:"timestamp"`
}

// AccountRow is a row of the top-accounts-by-balance list.
type AccountRow struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// ValidatorRow is a staking pool with its current balance.
type ValidatorRow struct {
	PoolAddress     string `json:"pool_address"`
	OperatorAddress string `json:"operator_address"`
	StakedAmount    uint64 `json:"staked_amount"`
}

// PackageRow is a recently deployed Move package publish transaction.
type PackageRow struct {
	Version   uint64 `json:"version"`
	Publisher string `json:"publisher"`
	Timestamp string `json:"timestamp"`
}

// TokenInfo describes a fungible asset.
type TokenInfo struct {
	AssetType string `json:"asset_type"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Decimals  int    `json:"decimals"`
}

// ActivityPoint is one bucket of the historical activity series.
type ActivityPoint struct {
	Date         string `json:"date"`
	Transactions int64  `json:"transactions"`
}

// NftOwnership is one owned token row. ImageURL is a derived side value
// populated by the metadata resolver after the list is fetched.
type NftOwnership struct {
	TokenDataID    string `json:"token_data_id"`
	TokenName      string `json:"token_name"`
	TokenURI       string `json:"token_uri"`
	CollectionName string `json:"collection_name"`
	OwnerAddress   string `json:"owner_address"`
	Amount         uint64 `json:"amount"`
	ImageURL       string `json:"image_url,omitempty"`
}

// CoinBalance is one fungible asset balance of an account.
type CoinBalance struct {
	AssetType string `json:"asset_type"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Decimals  int    `json:"decimals"`
	Amount    uint64 `json:"amount"`
}
