package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstar/internal/model"
)

func record(sig string) model.TxRecord {
	return model.TxRecord{Signature: sig, Direction: model.DirectionUnknown}
}

func TestApplyPipelineEvents(t *testing.T) {
	s := New(5, nil)

	s.Apply(ConnectivityChanged{Connected: true})
	assert.True(t, s.Connected)

	s.Apply(NetworkInfoUpdated{Info: model.NetworkInfo{Version: "2.1.0", Slot: 42, Epoch: 7}})
	assert.True(t, s.HasNet)
	assert.Equal(t, uint64(42), s.NetInfo.Slot)

	s.Apply(DeviceMounted{Mountpoint: "/mnt/usb"})
	s.Apply(PublicKeyRead{Key: "key-A"})
	s.Apply(BalanceUpdated{Lamports: 1_500_000_000})
	assert.True(t, s.HasBalance)
	assert.Equal(t, uint64(1_500_000_000), s.BalanceLamports)

	at := time.Now()
	s.Apply(SyncCompleted{At: at})
	assert.Equal(t, at, s.LastSync)
	assert.Empty(t, s.LastError)
}

func TestStageFailureRetainsCommittedState(t *testing.T) {
	s := New(5, nil)
	s.Apply(ConnectivityChanged{Connected: true})
	s.Apply(PublicKeyRead{Key: "key-A"})
	s.Apply(BalanceUpdated{Lamports: 900})

	s.Apply(StageFailed{Stage: StageTokens, Err: errors.New("rpc timeout")})

	assert.True(t, s.HasBalance)
	assert.Equal(t, uint64(900), s.BalanceLamports)
	assert.Contains(t, s.LastError, "tokens")
}

func TestDeviceClearedWipesWalletState(t *testing.T) {
	s := New(5, nil)
	s.Apply(DeviceMounted{Mountpoint: "/mnt/usb"})
	s.Apply(PublicKeyRead{Key: "key-A"})
	s.Apply(BalanceUpdated{Lamports: 10})
	s.Apply(TokensUpdated{Tokens: []model.TokenBalance{{Mint: "m1"}}})
	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s1")}})

	s.Apply(DeviceCleared{})

	assert.Empty(t, s.Mountpoint)
	assert.Empty(t, s.PublicKey)
	assert.False(t, s.HasBalance)
	assert.Empty(t, s.Tokens)
	assert.Empty(t, s.Transactions)
	assert.Zero(t, s.Visible)
}

func TestKeyChangeResetsDependentState(t *testing.T) {
	s := New(5, nil)
	s.Apply(PublicKeyRead{Key: "key-A"})
	s.Apply(BalanceUpdated{Lamports: 10})
	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s1")}})

	s.Apply(PublicKeyRead{Key: "key-B"})

	assert.Equal(t, "key-B", s.PublicKey)
	assert.False(t, s.HasBalance)
	assert.Empty(t, s.Transactions)

	// Same key again changes nothing.
	s.Apply(BalanceUpdated{Lamports: 20})
	s.Apply(PublicKeyRead{Key: "key-B"})
	assert.True(t, s.HasBalance)
}

func TestMergeDeduplicatesAndPrepends(t *testing.T) {
	s := New(5, nil)
	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s3"), record("s2"), record("s1")}})
	require.Len(t, s.Transactions, 3)
	assert.Equal(t, 3, s.Visible)

	// Next refresh sees two new transactions on top plus one already known.
	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s5"), record("s4"), record("s3")}})

	require.Len(t, s.Transactions, 5)
	assert.Equal(t, "s5", s.Transactions[0].Signature)
	assert.Equal(t, "s4", s.Transactions[1].Signature)
	assert.Equal(t, "s3", s.Transactions[2].Signature)
	assert.Equal(t, 5, s.Visible, "previously revealed rows stay revealed")
}

func TestMergeKeepsEnrichedRecords(t *testing.T) {
	s := New(5, nil)
	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s1")}})

	delta := int64(-100)
	enriched := model.TxRecord{Signature: "s1", Direction: model.DirectionSent, DeltaLamports: &delta}
	s.Apply(TransactionEnriched{Record: enriched})
	require.Equal(t, model.DirectionSent, s.Transactions[0].Direction)

	// Refresh delivers the same signature as a bare summary again.
	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s1")}})
	assert.Equal(t, model.DirectionSent, s.Transactions[0].Direction)
	require.NotNil(t, s.Transactions[0].DeltaLamports)
	assert.Equal(t, int64(-100), *s.Transactions[0].DeltaLamports)
}

func TestEnrichUnknownSignatureIgnored(t *testing.T) {
	s := New(5, nil)
	s.Apply(TransactionEnriched{Record: model.TxRecord{Signature: "ghost", Direction: model.DirectionSent}})
	assert.Empty(t, s.Transactions)
}

func TestAssetSelectionClamped(t *testing.T) {
	s := New(5, nil)
	s.Apply(TokensUpdated{Tokens: []model.TokenBalance{{Mint: "m1"}, {Mint: "m2"}}})

	s.SelectAsset(2)
	token, ok := s.SelectedToken()
	require.True(t, ok)
	assert.Equal(t, "m2", token.Mint)

	s.SelectAsset(9)
	assert.Equal(t, 2, s.SelectedAsset)

	s.SelectAsset(-3)
	assert.Equal(t, 0, s.SelectedAsset)
	_, ok = s.SelectedToken()
	assert.False(t, ok, "index zero is native SOL")

	// Token list shrinking pulls the selection back in range.
	s.SelectAsset(2)
	s.Apply(TokensUpdated{Tokens: []model.TokenBalance{{Mint: "m1"}}})
	assert.Equal(t, 1, s.SelectedAsset)
}

func TestVisibleTransactionsWindow(t *testing.T) {
	s := New(2, nil)
	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s4"), record("s3")}})
	assert.Len(t, s.VisibleTransactions(), 2)

	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s2"), record("s1")}, Append: true})
	assert.Len(t, s.VisibleTransactions(), 4)
	assert.False(t, s.HistoryExhausted)

	// A short page marks the end of history.
	s.Apply(TransactionsLoaded{Records: []model.TxRecord{record("s0")}, Append: true})
	assert.True(t, s.HistoryExhausted)
}
