package chain

import (
	"encoding/json"
	"strconv"
)

// AccountInfo is the on-chain account resource. The sequence number is the
// count of transactions the account has originated, used as the total
// transaction count for paging.
type AccountInfo struct {
	SequenceNumber    json.Number `json:"sequence_number"`
	AuthenticationKey string      `json:"authentication_key"`
}

// TransactionEntry is a raw committed transaction as the fullnode returns
// it. Version and Timestamp arrive as decimal strings.
type TransactionEntry struct {
	Version   json.Number `json:"version"`
	Hash      string      `json:"hash"`
	Success   bool        `json:"success"`
	VMStatus  string      `json:"vm_status"`
	Timestamp json.Number `json:"timestamp"`
	Sender    string      `json:"sender"`
	Payload   *Payload    `json:"payload"`
}

// Payload is an entry-function payload.
type Payload struct {
	Type      string            `json:"type"`
	Function  string            `json:"function"`
	Arguments []json.RawMessage `json:"arguments"`
}

// AddressArgKind discriminates the shapes an address-typed argument can
// take on the wire.
type AddressArgKind int

const (
	// AddressPlain is a bare "0x..." string.
	AddressPlain AddressArgKind = iota
	// AddressInner is an object carrying the address under "inner".
	AddressInner
	// AddressWrapped is an object carrying the address under "address".
	AddressWrapped
	// AddressUnknown is any shape not recognized above.
	AddressUnknown
)

// AddressArg is the decoded form of an address-typed payload argument.
type AddressArg struct {
	Kind  AddressArgKind
	Value string
}

// DecodeAddressArg decodes the known wire shapes of an address argument
// into an explicit variant. Unrecognized shapes yield AddressUnknown with
// an empty value rather than a guess.
func DecodeAddressArg(raw json.RawMessage) AddressArg {
	if len(raw) == 0 {
		return AddressArg{Kind: AddressUnknown}
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return AddressArg{Kind: AddressPlain, Value: plain}
	}

	var obj struct {
		Inner   *string `json:"inner"`
		Address *string `json:"address"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.Inner != nil:
			return AddressArg{Kind: AddressInner, Value: *obj.Inner}
		case obj.Address != nil:
			return AddressArg{Kind: AddressWrapped, Value: *obj.Address}
		}
	}

	return AddressArg{Kind: AddressUnknown}
}

// DecodeAmountArg decodes an amount argument, which arrives as a decimal
// string or a JSON number. Amounts are u64 on the wire. The second return
// is false when the shape is unrecognized.
func DecodeAmountArg(raw json.RawMessage) (uint64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return v, true
		}
		return 0, false
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
