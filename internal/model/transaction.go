package model

import "time"

// Direction classifies how a ledger entry moved value relative to the
// session's public key.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
	DirectionOther    Direction = "other"
	DirectionUnknown  Direction = "unknown"
)

// RawTxSummary is one entry from getSignaturesForAddress, converted at the
// RPC boundary. BlockTime stays nil until the ledger reports it.
type RawTxSummary struct {
	Signature string
	Slot      uint64
	BlockTime *time.Time
	Failed    bool
}

// RawTxDetail is the balance-movement view of a confirmed transaction.
// PreBalances and PostBalances are indexed identically to AccountKeys.
type RawTxDetail struct {
	AccountKeys  []string
	PreBalances  []uint64
	PostBalances []uint64
	FeeLamports  uint64
}

// TxRecord is an enriched history entry. Immutable once enriched; fields the
// enricher could not derive stay nil rather than defaulting to zero.
type TxRecord struct {
	Signature     string
	Slot          uint64
	BlockTime     *time.Time
	Failed        bool
	Direction     Direction
	DeltaLamports *int64 // signed; negative when sent
	FeeLamports   *uint64
}
