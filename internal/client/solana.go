package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"coldstar/internal/model"
)

// SolanaClient is a client for working with Solana RPC. Every call carries
// its own timeout so one hung endpoint cannot stall the poll slot.
type SolanaClient struct {
	rpcClient *rpc.Client
	rpcURL    string
	timeout   time.Duration
}

// NewSolanaClient creates a new Solana client for the given RPC endpoint.
func NewSolanaClient(rpcURL string, timeout time.Duration) *SolanaClient {
	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		rpcURL:    rpcURL,
		timeout:   timeout,
	}
}

// RPCURL returns the endpoint this client talks to.
func (c *SolanaClient) RPCURL() string {
	return c.rpcURL
}

func (c *SolanaClient) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// IsConnected reports whether the RPC endpoint answers getHealth.
func (c *SolanaClient) IsConnected() bool {
	ctx, cancel := c.callCtx()
	defer cancel()

	health, err := c.rpcClient.GetHealth(ctx)
	return err == nil && health == rpc.HealthOk
}

// NetworkInfo fetches node version, current slot and epoch.
func (c *SolanaClient) NetworkInfo() (*model.NetworkInfo, error) {
	ctx, cancel := c.callCtx()
	defer cancel()

	version, err := c.rpcClient.GetVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	slot, err := c.rpcClient.GetSlot(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}

	epochInfo, err := c.rpcClient.GetEpochInfo(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get epoch info: %w", err)
	}

	return &model.NetworkInfo{
		Version: version.SolanaCore,
		Slot:    slot,
		Epoch:   epochInfo.Epoch,
	}, nil
}

// Balance gets the SOL balance in lamports for an address.
func (c *SolanaClient) Balance(address string) (uint64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid Solana address: %w", err)
	}

	ctx, cancel := c.callCtx()
	defer cancel()

	balance, err := c.rpcClient.GetBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// LatestBlockhash fetches a recent blockhash for transaction construction.
func (c *SolanaClient) LatestBlockhash() (*model.Blockhash, error) {
	ctx, cancel := c.callCtx()
	defer cancel()

	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	return &model.Blockhash{
		Hash:                 recent.Value.Blockhash.String(),
		LastValidBlockHeight: recent.Value.LastValidBlockHeight,
	}, nil
}

// Signatures lists up to limit transaction signatures for an address,
// strictly older than before when before is non-empty (exclusive bound).
func (c *SolanaClient) Signatures(address string, limit int, before string) ([]model.RawTxSummary, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid Solana address: %w", err)
	}

	opts := &rpc.GetSignaturesForAddressOpts{Limit: &limit}
	if before != "" {
		cursor, err := solana.SignatureFromBase58(before)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor signature: %w", err)
		}
		opts.Before = cursor
	}

	ctx, cancel := c.callCtx()
	defer cancel()

	sigs, err := c.rpcClient.GetSignaturesForAddressWithOpts(ctx, pubkey, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	summaries := make([]model.RawTxSummary, 0, len(sigs))
	for _, sig := range sigs {
		summary := model.RawTxSummary{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
			Failed:    sig.Err != nil,
		}
		if sig.BlockTime != nil {
			t := sig.BlockTime.Time()
			summary.BlockTime = &t
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// TransactionDetail fetches the balance-movement view of one transaction.
func (c *SolanaClient) TransactionDetail(signature string) (*model.RawTxDetail, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	ctx, cancel := c.callCtx()
	defer cancel()

	// maxVersion is hardcoded - no point making it an env var because
	// new version support requires a library update and rebuild anyway
	maxVersion := uint64(0)
	tx, err := c.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx.Meta == nil {
		return nil, fmt.Errorf("transaction has no metadata")
	}

	decoded, err := tx.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	keys := make([]string, 0, len(decoded.Message.AccountKeys))
	for _, key := range decoded.Message.AccountKeys {
		keys = append(keys, key.String())
	}

	return &model.RawTxDetail{
		AccountKeys:  keys,
		PreBalances:  tx.Meta.PreBalances,
		PostBalances: tx.Meta.PostBalances,
		FeeLamports:  tx.Meta.Fee,
	}, nil
}

// BuildTransfer constructs an unsigned SOL transfer transaction.
func (c *SolanaClient) BuildTransfer(from, to string, lamports uint64, blockhash string) (*solana.Transaction, error) {
	fromPubkey, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	toPubkey, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}

	hash, err := solana.HashFromBase58(blockhash)
	if err != nil {
		return nil, fmt.Errorf("invalid blockhash: %w", err)
	}

	transferInstruction := system.NewTransferInstruction(
		lamports,
		fromPubkey,
		toPubkey,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferInstruction},
		hash,
		solana.TransactionPayer(fromPubkey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// SendRawTransaction submits a signed transaction payload and returns its
// signature.
func (c *SolanaClient) SendRawTransaction(signed []byte) (string, error) {
	ctx, cancel := c.callCtx()
	defer cancel()

	sig, err := c.rpcClient.SendRawTransactionWithOpts(ctx, signed, rpc.TransactionOpts{
		SkipPreflight:       false, // node-side validation before broadcast
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig.String(), nil
}

// RequestAirdrop asks the faucet for lamports. Only test networks honor it.
func (c *SolanaClient) RequestAirdrop(address string, lamports uint64) (string, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", fmt.Errorf("invalid Solana address: %w", err)
	}

	ctx, cancel := c.callCtx()
	defer cancel()

	sig, err := c.rpcClient.RequestAirdrop(ctx, pubkey, lamports, rpc.CommitmentConfirmed)
	if err != nil {
		return "", fmt.Errorf("failed to request airdrop: %w", err)
	}
	return sig.String(), nil
}

// ConfirmTransaction polls signature status until the transaction reaches
// confirmed commitment or the deadline passes.
func (c *SolanaClient) ConfirmTransaction(signature string) bool {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := c.callCtx()
		statuses, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
		cancel()
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return false
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return true
			}
		}
		time.Sleep(time.Second)
	}
	return false
}
