package export

import (
	"strconv"
	"strings"

	"github.com/NileDex/moveportfolio-sub000/internal/wallet"
)

// csvHeader lists the exported columns, matching TransactionRecord field
// order.
var csvHeader = []string{
	"version", "timestamp", "type", "sender", "recipient", "amount", "status", "hash",
}

// MarshalCSV renders transaction records as CSV: a header row followed by
// one row per record, with RFC 4180 quoting.
func MarshalCSV(records []wallet.TransactionRecord) string {
	var sb strings.Builder

	sb.WriteString(strings.Join(csvHeader, ","))
	sb.WriteByte('\n')

	for _, r := range records {
		fields := []string{
			strconv.FormatUint(r.Version, 10),
			r.Timestamp,
			r.Type,
			r.Sender,
			r.Recipient,
			strconv.FormatUint(r.Amount, 10),
			r.Status,
			r.Hash,
		}
		for i, f := range fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(escapeField(f))
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// escapeField quotes a value containing a comma, quote, or newline and
// doubles any embedded quotes.
func escapeField(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename is the download name for a wallet's export.
func Filename(walletAddress string) string {
	return "transactions_" + walletAddress + ".csv"
}
