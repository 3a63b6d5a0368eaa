package indexer

// GraphQL queries against the Movement indexer (Aptos indexer schema).
// All user input travels through variables, never string concatenation.
const (
	latestTransactionsQuery = `
query LatestTransactions($limit: Int!) {
  user_transactions(limit: $limit, order_by: {version: desc}) {
    version
    sender
    entry_function_id_str
    timestamp
  }
}`

	latestBlocksQuery = `
query LatestBlocks($limit: Int!) {
  block_metadata_transactions(limit: $limit, order_by: {version: desc}) {
    block_height
    version
    epoch
    round
    proposer
    timestamp
  }
}`

	topAccountsQuery = `
query TopAccounts($limit: Int!) {
  current_fungible_asset_balances(
    where: {asset_type: {_eq: "0x1::aptos_coin::AptosCoin"}}
    order_by: {amount: desc}
    limit: $limit
  ) {
    owner_address
    amount
  }
}`

	validatorsQuery = `
query Validators {
  delegated_staking_pools {
    staking_pool_address
    current_staking_pool {
      operator_address
      total_coins
    }
  }
}`

	recentPackagesQuery = `
query RecentPackages($limit: Int!) {
  user_transactions(
    where: {entry_function_id_str: {_eq: "0x1::code::publish_package_txn"}}
    order_by: {version: desc}
    limit: $limit
  ) {
    version
    sender
    timestamp
  }
}`

	tokenInfoQuery = `
query TokenInfo($assetType: String!) {
  fungible_asset_metadata(where: {asset_type: {_eq: $assetType}}) {
    asset_type
    name
    symbol
    decimals
  }
}`

	ledgerInfoQuery = `
query LedgerInfo {
  ledger_infos {
    chain_id
  }
  processor_status {
    last_success_version
  }
}`

	totalsQuery = `
query Totals {
  user_transactions_aggregate {
    aggregate {
      count
    }
  }
  account_transactions_aggregate(distinct_on: account_address) {
    aggregate {
      count
    }
  }
}`

	stakeTotalsQuery = `
query StakeTotals {
  delegated_staking_pools_aggregate {
    aggregate {
      count
    }
  }
  current_delegator_balances_aggregate(distinct_on: delegator_address) {
    aggregate {
      count
    }
  }
  delegated_staking_pools {
    current_staking_pool {
      total_coins
    }
  }
}`

	epochQuery = `
query Epoch {
  block_metadata_transactions(limit: 2, order_by: {version: desc}) {
    block_height
    epoch
    timestamp
  }
}`

	windowTransactionsQuery = `
query WindowTransactions($since: timestamp!, $until: timestamp!) {
  user_transactions_aggregate(
    where: {timestamp: {_gte: $since, _lt: $until}}
  ) {
    aggregate {
      count
    }
  }
}`

	accountNftsQuery = `
query AccountNfts($owner: String!) {
  current_token_ownerships_v2(
    where: {owner_address: {_eq: $owner}, amount: {_gt: "0"}}
  ) {
    token_data_id
    owner_address
    amount
    current_token_data {
      token_name
      token_uri
      current_collection {
        collection_name
      }
    }
  }
}`

	accountCoinsQuery = `
query AccountCoins($owner: String!) {
  current_fungible_asset_balances(
    where: {owner_address: {_eq: $owner}, amount: {_gt: "0"}}
  ) {
    asset_type
    amount
    metadata {
      name
      symbol
      decimals
    }
  }
}`
)
