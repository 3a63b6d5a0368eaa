// Package wallet turns the fullnode's ascending per-account transaction
// log into the newest-first pages the dashboard renders, and aggregates the
// account's portfolio.
package wallet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NileDex/moveportfolio-sub000/internal/chain"
)

// DefaultPageSize is the page size the transactions view requests.
const DefaultPageSize = 20

// exportSliceSize is the slice size used by the full-history fetch.
const exportSliceSize = 100

// Ledger is the slice of the fullnode client the pager consumes.
type Ledger interface {
	Account(ctx context.Context, addr string) (chain.AccountInfo, error)
	AccountTransactions(ctx context.Context, addr string, start uint64, limit int) ([]chain.TransactionEntry, error)
}

// TransactionRecord is one display row. Records are immutable once built
// and discarded on the next page fetch.
type TransactionRecord struct {
	Version   uint64 `json:"version"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	Status    string `json:"status"`
	Hash      string `json:"hash"`
}

// Page is one newest-first window of an account's history.
type Page struct {
	Records    []TransactionRecord `json:"records"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	Total      uint64              `json:"total"`
	TotalPages uint64              `json:"total_pages"`
}

// Pager fetches newest-first transaction pages for an account.
type Pager struct {
	ledger Ledger
}

// NewPager creates a pager over the given ledger.
func NewPager(ledger Ledger) *Pager {
	return &Pager{ledger: ledger}
}

// FetchPage returns page (1-based) of the account's history, newest first.
// An account that has never transacted yields an empty page, not an error.
func (p *Pager) FetchPage(ctx context.Context, addr string, page, pageSize int) (Page, error) {
	if page < 1 {
		return Page{}, fmt.Errorf("page must be positive, got %d", page)
	}
	if pageSize < 1 {
		return Page{}, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	total, err := p.total(ctx, addr)
	if err != nil {
		return Page{}, err
	}

	out := Page{
		Records:    []TransactionRecord{},
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
	if total == 0 {
		return out, nil
	}

	// Descending window: page 1 holds the newest pageSize entries. The
	// window shrinks instead of underflowing past the earliest entry.
	offset := int64(total) - int64(page)*int64(pageSize)
	limit := pageSize
	if offset < 0 {
		limit = pageSize + int(offset)
		offset = 0
	}
	if limit <= 0 {
		return out, nil
	}

	entries, err := p.ledger.AccountTransactions(ctx, addr, uint64(offset), limit)
	if err != nil {
		return Page{}, fmt.Errorf("fetch transactions: %w", err)
	}

	// Entries arrive oldest-first within the window; the page renders
	// newest-first.
	records := make([]TransactionRecord, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		records = append(records, buildRecord(entries[i]))
	}
	out.Records = records
	return out, nil
}

// FetchAll returns the account's complete history, newest first, reporting
// progress in [0,100] after each slice. Used by the CSV export path.
func (p *Pager) FetchAll(ctx context.Context, addr string, progress func(pct int)) ([]TransactionRecord, error) {
	total, err := p.total(ctx, addr)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		if progress != nil {
			progress(100)
		}
		return []TransactionRecord{}, nil
	}

	entries := make([]chain.TransactionEntry, 0, total)
	for start := uint64(0); start < total; {
		limit := exportSliceSize
		if remaining := total - start; remaining < exportSliceSize {
			limit = int(remaining)
		}
		slice, err := p.ledger.AccountTransactions(ctx, addr, start, limit)
		if err != nil {
			return nil, fmt.Errorf("fetch transactions at %d: %w", start, err)
		}
		entries = append(entries, slice...)
		if progress != nil {
			progress(int(uint64(len(entries)) * 100 / total))
		}
		if len(slice) == 0 {
			break
		}
		// Short replies are legal; resume from what actually arrived.
		start += uint64(len(slice))
	}

	records := make([]TransactionRecord, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		records = append(records, buildRecord(entries[i]))
	}
	return records, nil
}

// total resolves the account's transaction count, normalizing the typed
// not-found failure to empty history.
func (p *Pager) total(ctx context.Context, addr string) (uint64, error) {
	info, err := p.ledger.Account(ctx, addr)
	if err != nil {
		if chain.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("fetch account: %w", err)
	}
	n, err := strconv.ParseUint(info.SequenceNumber.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sequence number %q: %w", info.SequenceNumber, err)
	}
	return n, nil
}

func totalPages(total uint64, pageSize int) uint64 {
	if total == 0 {
		return 0
	}
	return (total + uint64(pageSize) - 1) / uint64(pageSize)
}

// buildRecord maps one raw ledger entry into a display row.
func buildRecord(e chain.TransactionEntry) TransactionRecord {
	rec := TransactionRecord{
		Sender: e.Sender,
		Hash:   e.Hash,
		Type:   "Transaction",
		Status: "Failed",
	}
	if e.Success {
		rec.Status = "Success"
	}
	if v, err := strconv.ParseUint(e.Version.String(), 10, 64); err == nil {
		rec.Version = v
	}
	if us, err := e.Timestamp.Int64(); err == nil && us > 0 {
		rec.Timestamp = time.UnixMicro(us).UTC().Format(time.RFC3339)
	}

	if e.Payload == nil {
		return rec
	}

	rec.Type = classify(e.Payload.Function)
	if rec.Type == "Transfer" && len(e.Payload.Arguments) >= 2 {
		if arg := chain.DecodeAddressArg(e.Payload.Arguments[0]); arg.Kind != chain.AddressUnknown {
			rec.Recipient = arg.Value
		}
		if amount, ok := chain.DecodeAmountArg(e.Payload.Arguments[1]); ok {
			rec.Amount = amount
		}
	}
	return rec
}

// classify labels a transaction by substring match on its entry function.
func classify(function string) string {
	f := strings.ToLower(function)
	switch {
	case strings.Contains(f, "transfer"):
		return "Transfer"
	case strings.Contains(f, "swap"):
		return "Swap"
	case strings.Contains(f, "stake"):
		return "Stake"
	default:
		return "Transaction"
	}
}
