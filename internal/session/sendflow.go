package session

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"coldstar/internal/common"
	"coldstar/internal/model"
	"coldstar/internal/signer"
)

// FlowState is a step of the guarded send workflow.
type FlowState int

const (
	StateDraft FlowState = iota
	StateConfirming
	StateSigning
	StateBroadcasting
	StateResult
)

func (s FlowState) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateConfirming:
		return "confirming"
	case StateSigning:
		return "signing"
	case StateBroadcasting:
		return "broadcasting"
	case StateResult:
		return "result"
	default:
		return "unknown"
	}
}

// TransferClient is the slice of the RPC client the send flow needs.
type TransferClient interface {
	LatestBlockhash() (*model.Blockhash, error)
	BuildTransfer(from, to string, lamports uint64, blockhash string) (*solana.Transaction, error)
	SendRawTransaction(signed []byte) (string, error)
}

// SignFunc decrypts the container at path and signs tx, consuming the
// passphrase. The default implementation is backed by the signer package.
type SignFunc func(tx *solana.Transaction, containerPath string, passphrase []byte) ([]byte, error)

func defaultSign(tx *solana.Transaction, containerPath string, passphrase []byte) ([]byte, error) {
	container, err := signer.LoadContainer(containerPath)
	if err != nil {
		return nil, err
	}
	return signer.SignTransferSecure(tx, container, passphrase)
}

// SendFlow is the state machine behind the send panel. Draft fields are
// edited freely; every transition toward broadcast passes a gate, and any
// failure lands back in Draft with the fields intact so the user can fix
// and retry. Like WalletSession it mutates only on the UI update loop; the
// background signing worker reports through events.
type SendFlow struct {
	State     FlowState
	Recipient string
	Amount    string
	Failure   string
	ResultSig string

	// owner and balance are read at gate time from the session snapshot.
	owner         func() (pubkey string, lamports uint64, ok bool)
	containerPath func() string
	net           TransferClient
	sign          SignFunc
	events        chan<- Event
	resync        func()
	feeLamports   uint64
	log           *zap.Logger

	lamports uint64 // parsed amount, valid from BeginConfirm on
}

func NewSendFlow(
	owner func() (string, uint64, bool),
	containerPath func() string,
	net TransferClient,
	events chan<- Event,
	resync func(),
	feeLamports uint64,
	log *zap.Logger,
) *SendFlow {
	if log == nil {
		log = zap.NewNop()
	}
	return &SendFlow{
		owner:         owner,
		containerPath: containerPath,
		net:           net,
		sign:          defaultSign,
		events:        events,
		resync:        resync,
		feeLamports:   feeLamports,
		log:           log.Named("send"),
	}
}

// SetRecipient updates the draft recipient. Only allowed in Draft.
func (f *SendFlow) SetRecipient(address string) {
	if f.State == StateDraft {
		f.Recipient = address
	}
}

// SetAmount updates the draft SOL amount. Only allowed in Draft.
func (f *SendFlow) SetAmount(amount string) {
	if f.State == StateDraft {
		f.Amount = amount
	}
}

// BeginConfirm validates the draft and, when every gate passes, moves to
// Confirming. The balance gate reads the live balance at this moment, so a
// draft written against a stale balance still cannot overdraw.
func (f *SendFlow) BeginConfirm() error {
	if f.State != StateDraft {
		return fmt.Errorf("%w: not in draft", model.ErrValidation)
	}
	if !signer.ValidateAddress(f.Recipient) {
		return fmt.Errorf("%w: recipient is not a valid address", model.ErrValidation)
	}
	lamports, err := common.SOLToLamports(f.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	if lamports == 0 {
		return fmt.Errorf("%w: amount must be positive", model.ErrValidation)
	}
	owner, balance, ok := f.owner()
	if !ok {
		return fmt.Errorf("%w: wallet is not ready", model.ErrValidation)
	}
	if f.Recipient == owner {
		return fmt.Errorf("%w: recipient is the wallet itself", model.ErrValidation)
	}
	if lamports+f.feeLamports > balance {
		return fmt.Errorf("%w: amount plus the %d lamport fee exceeds the balance", model.ErrValidation, f.feeLamports)
	}

	f.lamports = lamports
	f.State = StateConfirming
	return nil
}

// Review renders the review line. In Draft it derives from whatever is
// typed so far, recomputed on every edit; empty until both fields carry
// something renderable. From Confirming on it uses the validated amount.
func (f *SendFlow) Review() string {
	lamports := f.lamports
	if f.State == StateDraft {
		parsed, err := common.SOLToLamports(f.Amount)
		if err != nil || parsed == 0 || f.Recipient == "" {
			return ""
		}
		lamports = parsed
	}
	return fmt.Sprintf("%s SOL → %s", common.LamportsToSOL(lamports), common.ShortenKey(f.Recipient))
}

// Back returns from Confirming to Draft without touching the fields.
func (f *SendFlow) Back() {
	if f.State == StateConfirming {
		f.State = StateDraft
	}
}

// Confirm takes the passphrase and launches the sign-and-broadcast worker.
// The passphrase is consumed; the caller must not reuse the slice.
func (f *SendFlow) Confirm(ctx context.Context, passphrase []byte) error {
	if f.State != StateConfirming {
		return fmt.Errorf("%w: nothing to confirm", model.ErrValidation)
	}
	owner, _, ok := f.owner()
	if !ok {
		return fmt.Errorf("%w: wallet is not ready", model.ErrValidation)
	}
	containerPath := f.containerPath()
	if containerPath == "" {
		return fmt.Errorf("%w: no mounted device", model.ErrDevice)
	}

	f.State = StateSigning
	recipient, lamports := f.Recipient, f.lamports

	go func() {
		sig, err := f.broadcast(owner, recipient, containerPath, lamports, passphrase)
		select {
		case f.events <- SendFinished{Signature: sig, Err: err}:
		case <-ctx.Done():
		}
	}()
	return nil
}

// broadcast runs the blockhash, build, sign, send sequence.
func (f *SendFlow) broadcast(owner, recipient, containerPath string, lamports uint64, passphrase []byte) (string, error) {
	blockhash, err := f.net.LatestBlockhash()
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrBroadcast, err)
	}

	tx, err := f.net.BuildTransfer(owner, recipient, lamports, blockhash.Hash)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrBroadcast, err)
	}

	signed, err := f.sign(tx, containerPath, passphrase)
	if err != nil {
		return "", err
	}

	// Signing done, the submit is all that remains
	f.notifyStage(StateBroadcasting)
	sig, err := f.net.SendRawTransaction(signed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrBroadcast, err)
	}
	f.log.Info("transfer broadcast",
		zap.String("signature", sig),
		zap.Uint64("lamports", lamports))
	return sig, nil
}

func (f *SendFlow) notifyStage(state FlowState) {
	select {
	case f.events <- SendStageChanged{Stage: state}:
	default:
	}
}

// Apply folds worker events into the flow. Called from the UI update loop
// alongside WalletSession.Apply.
func (f *SendFlow) Apply(evt Event) {
	switch e := evt.(type) {
	case SendStageChanged:
		if f.State == StateSigning || f.State == StateBroadcasting {
			f.State = e.Stage
		}
	case SendFinished:
		if e.Err != nil {
			// Back to the draft with everything the user typed intact.
			f.Failure = e.Err.Error()
			f.State = StateDraft
			return
		}
		f.Failure = ""
		f.ResultSig = e.Signature
		f.State = StateResult
		if f.resync != nil {
			f.resync()
		}
	}
}

// Clear resets the flow to an empty draft. Used after a result is
// acknowledged or to abandon a draft.
func (f *SendFlow) Clear() {
	f.State = StateDraft
	f.Recipient = ""
	f.Amount = ""
	f.Failure = ""
	f.ResultSig = ""
	f.lamports = 0
}
