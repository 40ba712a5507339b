package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstar/internal/model"
)

const (
	ownerAddr     = "11111111111111111111111111111111"
	recipientAddr = "So11111111111111111111111111111111111111112"
)

type fakeTransfer struct {
	blockhashErr error
	sendErr      error
	sentRaw      []byte
	signature    string
}

func (f *fakeTransfer) LatestBlockhash() (*model.Blockhash, error) {
	if f.blockhashErr != nil {
		return nil, f.blockhashErr
	}
	return &model.Blockhash{Hash: "FakeHash", LastValidBlockHeight: 100}, nil
}

func (f *fakeTransfer) BuildTransfer(from, to string, lamports uint64, blockhash string) (*solana.Transaction, error) {
	return &solana.Transaction{}, nil
}

func (f *fakeTransfer) SendRawTransaction(signed []byte) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sentRaw = signed
	return f.signature, nil
}

type flowHarness struct {
	flow     *SendFlow
	events   chan Event
	client   *fakeTransfer
	resyncs  int
	lamports uint64
}

func newFlowHarness(t *testing.T, balance uint64) *flowHarness {
	t.Helper()
	h := &flowHarness{
		events: make(chan Event, 16),
		client: &fakeTransfer{signature: "BroadcastSig"},
	}
	h.lamports = balance
	h.flow = NewSendFlow(
		func() (string, uint64, bool) { return ownerAddr, h.lamports, true },
		func() string { return "/mnt/usb/wallet/keypair.json" },
		h.client,
		h.events,
		func() { h.resyncs++ },
		5_000,
		nil,
	)
	h.flow.sign = func(tx *solana.Transaction, containerPath string, passphrase []byte) ([]byte, error) {
		if string(passphrase) != "correct horse" {
			return nil, errors.New("invalid password")
		}
		return []byte{0xAA}, nil
	}
	return h
}

// waitFinished pumps events into the flow until the send settles.
func (h *flowHarness) waitFinished(t *testing.T) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-h.events:
			h.flow.Apply(evt)
			if _, ok := evt.(SendFinished); ok {
				return
			}
		case <-deadline:
			t.Fatal("send never finished")
		}
	}
}

func TestBeginConfirmGates(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		amount    string
		balance   uint64
	}{
		{"bad address", "not-an-address", "0.5", 1_000_000_000},
		{"malformed amount", recipientAddr, "1.2.3", 1_000_000_000},
		{"zero amount", recipientAddr, "0", 1_000_000_000},
		{"negative amount", recipientAddr, "-1", 1_000_000_000},
		{"self send", ownerAddr, "0.5", 1_000_000_000},
		{"exceeds balance with fee", recipientAddr, "1", 1_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFlowHarness(t, tt.balance)
			h.flow.SetRecipient(tt.recipient)
			h.flow.SetAmount(tt.amount)

			err := h.flow.BeginConfirm()
			assert.ErrorIs(t, err, model.ErrValidation)
			assert.Equal(t, StateDraft, h.flow.State)
		})
	}
}

func TestBeginConfirmExactBalanceMinusFee(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	h.flow.SetRecipient(recipientAddr)
	h.flow.SetAmount("1")

	require.NoError(t, h.flow.BeginConfirm())
	assert.Equal(t, StateConfirming, h.flow.State)
	assert.Equal(t, "1.000000000 SOL → So111111...11111112", h.flow.Review())
}

func TestDraftReviewTracksEdits(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	assert.Empty(t, h.flow.Review())

	h.flow.SetRecipient(recipientAddr)
	assert.Empty(t, h.flow.Review(), "nothing to review without an amount")

	h.flow.SetAmount("0.5")
	assert.Equal(t, "0.500000000 SOL → So111111...11111112", h.flow.Review())

	h.flow.SetAmount("0.75")
	assert.Equal(t, "0.750000000 SOL → So111111...11111112", h.flow.Review())

	h.flow.SetAmount("bogus")
	assert.Empty(t, h.flow.Review())
}

func TestBackPreservesDraft(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	h.flow.SetRecipient(recipientAddr)
	h.flow.SetAmount("0.5")
	require.NoError(t, h.flow.BeginConfirm())

	h.flow.Back()
	assert.Equal(t, StateDraft, h.flow.State)
	assert.Equal(t, recipientAddr, h.flow.Recipient)
	assert.Equal(t, "0.5", h.flow.Amount)
}

func TestConfirmHappyPath(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	h.flow.SetRecipient(recipientAddr)
	h.flow.SetAmount("0.5")
	require.NoError(t, h.flow.BeginConfirm())

	require.NoError(t, h.flow.Confirm(context.Background(), []byte("correct horse")))
	assert.Equal(t, StateSigning, h.flow.State)

	h.waitFinished(t)

	assert.Equal(t, StateResult, h.flow.State)
	assert.Equal(t, "BroadcastSig", h.flow.ResultSig)
	assert.Empty(t, h.flow.Failure)
	assert.Equal(t, []byte{0xAA}, h.client.sentRaw)
	assert.Equal(t, 1, h.resyncs)

	h.flow.Clear()
	assert.Equal(t, StateDraft, h.flow.State)
	assert.Empty(t, h.flow.Recipient)
	assert.Empty(t, h.flow.ResultSig)
}

func TestConfirmWrongPassphraseReturnsToDraft(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	h.flow.SetRecipient(recipientAddr)
	h.flow.SetAmount("0.5")
	require.NoError(t, h.flow.BeginConfirm())

	require.NoError(t, h.flow.Confirm(context.Background(), []byte("wrong")))
	h.waitFinished(t)

	assert.Equal(t, StateDraft, h.flow.State)
	assert.Contains(t, h.flow.Failure, "invalid password")
	assert.Equal(t, recipientAddr, h.flow.Recipient, "draft fields survive the failure")
	assert.Equal(t, "0.5", h.flow.Amount)
	assert.Zero(t, h.resyncs)
}

func TestNoBroadcastStageWhenSigningFails(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	h.flow.SetRecipient(recipientAddr)
	h.flow.SetAmount("0.5")
	require.NoError(t, h.flow.BeginConfirm())
	require.NoError(t, h.flow.Confirm(context.Background(), []byte("wrong")))

	// The flow must stay in Signing until the sign succeeds; a failed sign
	// never reaches Broadcasting.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-h.events:
			if stage, ok := evt.(SendStageChanged); ok {
				t.Fatalf("stage event %v emitted despite signing failure", stage.Stage)
			}
			h.flow.Apply(evt)
			if _, ok := evt.(SendFinished); ok {
				assert.Equal(t, StateDraft, h.flow.State)
				return
			}
		case <-deadline:
			t.Fatal("send never finished")
		}
	}
}

func TestBroadcastStageFollowsSigning(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	h.flow.SetRecipient(recipientAddr)
	h.flow.SetAmount("0.5")
	require.NoError(t, h.flow.BeginConfirm())
	require.NoError(t, h.flow.Confirm(context.Background(), []byte("correct horse")))

	var stages []FlowState
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-h.events:
			if stage, ok := evt.(SendStageChanged); ok {
				stages = append(stages, stage.Stage)
			}
			h.flow.Apply(evt)
			if _, ok := evt.(SendFinished); ok {
				assert.Equal(t, []FlowState{StateBroadcasting}, stages)
				return
			}
		case <-deadline:
			t.Fatal("send never finished")
		}
	}
}

func TestConfirmBroadcastFailureReturnsToDraft(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	h.client.sendErr = errors.New("blockhash expired")
	h.flow.SetRecipient(recipientAddr)
	h.flow.SetAmount("0.5")
	require.NoError(t, h.flow.BeginConfirm())

	require.NoError(t, h.flow.Confirm(context.Background(), []byte("correct horse")))
	h.waitFinished(t)

	assert.Equal(t, StateDraft, h.flow.State)
	assert.Contains(t, h.flow.Failure, "blockhash expired")
}

func TestConfirmOutOfOrderRejected(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	err := h.flow.Confirm(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDraftEditsIgnoredOutsideDraft(t *testing.T) {
	h := newFlowHarness(t, 1_000_005_000)
	h.flow.SetRecipient(recipientAddr)
	h.flow.SetAmount("0.5")
	require.NoError(t, h.flow.BeginConfirm())

	h.flow.SetRecipient("other")
	h.flow.SetAmount("9")
	assert.Equal(t, recipientAddr, h.flow.Recipient)
	assert.Equal(t, "0.5", h.flow.Amount)
}
