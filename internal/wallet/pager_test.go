package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"

	"github.com/NileDex/moveportfolio-sub000/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger serves a synthetic ascending history of total entries.
// maxReply, when set, caps each reply below the requested limit.
type fakeLedger struct {
	total      uint64
	maxReply   int
	notFound   bool
	accountErr error

	fetchCalls []fetchCall
}

type fetchCall struct {
	start uint64
	limit int
}

func (f *fakeLedger) Account(ctx context.Context, addr string) (chain.AccountInfo, error) {
	if f.accountErr != nil {
		return chain.AccountInfo{}, f.accountErr
	}
	if f.notFound {
		return chain.AccountInfo{}, &chain.NotFoundError{ErrorCode: "account_not_found", Message: "not found"}
	}
	return chain.AccountInfo{SequenceNumber: json.Number(strconv.FormatUint(f.total, 10))}, nil
}

func (f *fakeLedger) AccountTransactions(ctx context.Context, addr string, start uint64, limit int) ([]chain.TransactionEntry, error) {
	f.fetchCalls = append(f.fetchCalls, fetchCall{start: start, limit: limit})

	if f.maxReply > 0 && limit > f.maxReply {
		limit = f.maxReply
	}
	entries := make([]chain.TransactionEntry, 0, limit)
	for i := 0; i < limit && start+uint64(i) < f.total; i++ {
		seq := start + uint64(i)
		entries = append(entries, chain.TransactionEntry{
			Version: json.Number(strconv.FormatUint(1000+seq, 10)),
			Hash:    fmt.Sprintf("0xhash%d", seq),
			Success: true,
			Sender:  "0xsender",
		})
	}
	return entries, nil
}

func TestFetchPage_Windowing(t *testing.T) {
	// N=25, pageSize=20: the canonical window table.
	tests := []struct {
		page      int
		wantStart uint64
		wantLimit int
		wantRows  int
	}{
		{page: 1, wantStart: 5, wantLimit: 20, wantRows: 20},
		{page: 2, wantStart: 0, wantLimit: 5, wantRows: 5},
		{page: 3, wantRows: 0}, // beyond available history, no fetch
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page%d", tt.page), func(t *testing.T) {
			ledger := &fakeLedger{total: 25}
			p := NewPager(ledger)

			page, err := p.FetchPage(context.Background(), "0xabc", tt.page, 20)
			require.NoError(t, err)

			assert.Len(t, page.Records, tt.wantRows)
			assert.Equal(t, uint64(25), page.Total)
			assert.Equal(t, uint64(2), page.TotalPages)

			if tt.wantRows == 0 {
				assert.Empty(t, ledger.fetchCalls)
				return
			}
			require.Len(t, ledger.fetchCalls, 1)
			assert.Equal(t, tt.wantStart, ledger.fetchCalls[0].start)
			assert.Equal(t, tt.wantLimit, ledger.fetchCalls[0].limit)
		})
	}
}

func TestFetchPage_NewestFirst(t *testing.T) {
	p := NewPager(&fakeLedger{total: 25})

	page, err := p.FetchPage(context.Background(), "0xabc", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Records, 20)

	for i := 1; i < len(page.Records); i++ {
		assert.Greater(t, page.Records[i-1].Version, page.Records[i].Version,
			"records must be in descending version order")
	}
}

func TestFetchPage_AccountNotFound(t *testing.T) {
	p := NewPager(&fakeLedger{notFound: true})

	page, err := p.FetchPage(context.Background(), "0xnever", 1, 20)
	require.NoError(t, err, "not found is empty history, not an error")
	assert.Empty(t, page.Records)
	assert.Equal(t, uint64(0), page.Total)
	assert.Equal(t, uint64(0), page.TotalPages)
}

func TestFetchPage_AccountError(t *testing.T) {
	p := NewPager(&fakeLedger{accountErr: fmt.Errorf("rpc down")})

	_, err := p.FetchPage(context.Background(), "0xabc", 1, 20)
	require.Error(t, err)
}

func TestFetchPage_InvalidArgs(t *testing.T) {
	p := NewPager(&fakeLedger{total: 5})

	_, err := p.FetchPage(context.Background(), "0xabc", 0, 20)
	assert.Error(t, err)

	_, err = p.FetchPage(context.Background(), "0xabc", 1, 0)
	assert.Error(t, err)
}

func TestFetchAll_SlicesAndProgress(t *testing.T) {
	ledger := &fakeLedger{total: 250}
	p := NewPager(ledger)

	var progress []int
	records, err := p.FetchAll(context.Background(), "0xabc", func(pct int) {
		progress = append(progress, pct)
	})
	require.NoError(t, err)

	assert.Len(t, records, 250)
	require.Len(t, ledger.fetchCalls, 3)
	assert.Equal(t, fetchCall{start: 0, limit: 100}, ledger.fetchCalls[0])
	assert.Equal(t, fetchCall{start: 100, limit: 100}, ledger.fetchCalls[1])
	assert.Equal(t, fetchCall{start: 200, limit: 50}, ledger.fetchCalls[2])

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])

	// Newest first, same as the paged view.
	assert.Equal(t, uint64(1249), records[0].Version)
	assert.Equal(t, uint64(1000), records[len(records)-1].Version)
}

func TestFetchAll_ShortReplies(t *testing.T) {
	// The fullnode may return fewer entries than asked for; nothing in the
	// window may be skipped.
	ledger := &fakeLedger{total: 250, maxReply: 60}
	p := NewPager(ledger)

	records, err := p.FetchAll(context.Background(), "0xabc", nil)
	require.NoError(t, err)

	require.Len(t, records, 250)
	assert.Equal(t, uint64(1249), records[0].Version)
	assert.Equal(t, uint64(1000), records[len(records)-1].Version)

	// Each fetch resumes exactly where the short reply stopped.
	require.Len(t, ledger.fetchCalls, 5)
	assert.Equal(t, fetchCall{start: 0, limit: 100}, ledger.fetchCalls[0])
	assert.Equal(t, fetchCall{start: 60, limit: 100}, ledger.fetchCalls[1])
	assert.Equal(t, fetchCall{start: 240, limit: 10}, ledger.fetchCalls[4])
}

func TestFetchAll_EmptyHistory(t *testing.T) {
	p := NewPager(&fakeLedger{notFound: true})

	var progress []int
	records, err := p.FetchAll(context.Background(), "0xnever", func(pct int) {
		progress = append(progress, pct)
	})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, []int{100}, progress)
}

func TestBuildRecord_TransferDecoding(t *testing.T) {
	entry := chain.TransactionEntry{
		Version:   "42",
		Hash:      "0xdead",
		Success:   true,
		Timestamp: "1700000000000000",
		Sender:    "0xa",
		Payload: &chain.Payload{
			Function: "0x1::aptos_account::transfer",
			Arguments: []json.RawMessage{
				json.RawMessage(`{"inner":"0xb"}`),
				json.RawMessage(`"500"`),
			},
		},
	}

	rec := buildRecord(entry)
	assert.Equal(t, "Transfer", rec.Type)
	assert.Equal(t, "0xb", rec.Recipient)
	assert.Equal(t, uint64(500), rec.Amount)
	assert.Equal(t, "Success", rec.Status)
	assert.Equal(t, uint64(42), rec.Version)
	assert.NotEmpty(t, rec.Timestamp)
}

func TestBuildRecord_Failed(t *testing.T) {
	rec := buildRecord(chain.TransactionEntry{Version: "1", Success: false})
	assert.Equal(t, "Failed", rec.Status)
	assert.Equal(t, "Transaction", rec.Type)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		function string
		want     string
	}{
		{"0x1::aptos_account::transfer", "Transfer"},
		{"0x1::coin::transfer", "Transfer"},
		{"0xdex::router::swap_exact_input", "Swap"},
		{"0x1::delegation_pool::add_stake", "Stake"},
		{"0x1::code::publish_package_txn", "Transaction"},
		{"", "Transaction"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.function), tt.function)
	}
}
