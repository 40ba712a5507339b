// Package session holds the live wallet state and the workers that feed it.
// Workers never touch state directly: they emit typed events on a channel
// and WalletSession.Apply, called from the UI update loop, is the only
// place state mutates.
package session

import (
	"time"

	"coldstar/internal/model"
)

// Event is a state change produced by a worker. Concrete event types are
// applied by WalletSession.Apply.
type Event interface{ isEvent() }

// Stage names a step of the refresh pipeline, used in failure reporting.
type Stage string

const (
	StageConnectivity Stage = "connectivity"
	StageNetworkInfo  Stage = "network info"
	StageDevices      Stage = "devices"
	StageMount        Stage = "mount"
	StagePublicKey    Stage = "public key"
	StageBalance      Stage = "balance"
	StageTokens       Stage = "tokens"
	StageHistory      Stage = "history"
	StageEnrichment   Stage = "enrichment"
)

// ConnectivityChanged reports the RPC health probe result.
type ConnectivityChanged struct {
	Connected bool
}

// NetworkInfoUpdated carries version, slot and epoch from the node.
type NetworkInfoUpdated struct {
	Info model.NetworkInfo
}

// DevicesDiscovered carries the latest removable device scan.
type DevicesDiscovered struct {
	Devices           []model.Device
	Selected          int // index into Devices, -1 when none
	SelectionRequired bool
}

// DeviceMounted reports a successful mount of the selected device.
type DeviceMounted struct {
	Mountpoint string
}

// DeviceCleared reports that the device was unmounted or lost; all wallet
// state derived from it must be discarded.
type DeviceCleared struct{}

// PublicKeyRead carries the wallet address read from the device.
type PublicKeyRead struct {
	Key string
}

// BalanceUpdated carries the confirmed lamport balance.
type BalanceUpdated struct {
	Lamports uint64
}

// TokensUpdated carries the SPL token balances for the wallet.
type TokensUpdated struct {
	Tokens []model.TokenBalance
}

// TransactionsLoaded carries a page of transaction records. Append pages
// extend history at the old end; otherwise the page is the newest window
// and is merged in front of what is already known.
type TransactionsLoaded struct {
	Records []model.TxRecord
	Append  bool
}

// TransactionEnriched carries direction and amounts resolved for one
// previously summary-only record.
type TransactionEnriched struct {
	Record model.TxRecord
}

// StageFailed reports that a refresh stage failed. Stages after it did not
// run; state committed by earlier stages stands.
type StageFailed struct {
	Stage Stage
	Err   error
}

// SyncCompleted marks the end of a full refresh pass.
type SyncCompleted struct {
	At time.Time
}

// RateUpdated carries the cosmetic SOL/USD rate. Zero means unavailable.
type RateUpdated struct {
	USDPerSOL float64
}

// SendStageChanged reports progress of an in-flight send.
type SendStageChanged struct {
	Stage FlowState
}

// SendFinished reports the outcome of a send attempt.
type SendFinished struct {
	Signature string
	Err       error
}

// AirdropFinished reports the outcome of a devnet/testnet airdrop request.
type AirdropFinished struct {
	Signature string
	Confirmed bool
	Err       error
}

func (ConnectivityChanged) isEvent()  {}
func (NetworkInfoUpdated) isEvent()   {}
func (DevicesDiscovered) isEvent()    {}
func (DeviceMounted) isEvent()        {}
func (DeviceCleared) isEvent()        {}
func (PublicKeyRead) isEvent()        {}
func (BalanceUpdated) isEvent()       {}
func (TokensUpdated) isEvent()        {}
func (TransactionsLoaded) isEvent()   {}
func (TransactionEnriched) isEvent()  {}
func (StageFailed) isEvent()          {}
func (SyncCompleted) isEvent()        {}
func (RateUpdated) isEvent()          {}
func (SendStageChanged) isEvent()     {}
func (SendFinished) isEvent()         {}
func (AirdropFinished) isEvent()      {}
