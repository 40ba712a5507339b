package client

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"coldstar/internal/model"
)

// knownToken is one entry of the known-mint registry.
type knownToken struct {
	Symbol   string
	Decimals int
}

// Known SPL token mints (mainnet + devnet USDC). Unknown mints are still
// listed, with symbol "Unknown", after the known ones.
var knownTokens = map[string]knownToken{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Symbol: "USDC", Decimals: 6},
	"Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr": {Symbol: "USDC", Decimals: 6}, // devnet
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {Symbol: "USDT", Decimals: 6},
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": {Symbol: "RAY", Decimals: 6},
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {Symbol: "BONK", Decimals: 5},
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  {Symbol: "JUP", Decimals: 6},
}

// parsedTokenAccount mirrors the jsonParsed account encoding from RPC.
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			Owner       string `json:"owner"`
			TokenAmount struct {
				Amount   string   `json:"amount"`
				Decimals int      `json:"decimals"`
				UIAmount *float64 `json:"uiAmount"`
			} `json:"tokenAmount"`
		} `json:"info"`
		Type string `json:"type"`
	} `json:"parsed"`
	Program string `json:"program"`
}

// TokenBalances gets all SPL token holdings for an address. Accounts with a
// zero balance are kept; known tokens sort first, then by descending amount.
func (c *SolanaClient) TokenBalances(address string) ([]model.TokenBalance, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid Solana address: %w", err)
	}

	ctx, cancel := c.callCtx()
	defer cancel()

	programID := solana.TokenProgramID
	out, err := c.rpcClient.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{
			Commitment: rpc.CommitmentConfirmed,
			Encoding:   solana.EncodingJSONParsed,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts: %w", err)
	}

	balances := make([]model.TokenBalance, 0, len(out.Value))
	for _, account := range out.Value {
		if account == nil || account.Account.Data == nil {
			continue
		}

		var parsed parsedTokenAccount
		if err := json.Unmarshal(account.Account.Data.GetRawJSON(), &parsed); err != nil {
			// Skip accounts the node could not parse rather than failing the stage
			continue
		}

		info := parsed.Parsed.Info
		if info.Mint == "" {
			continue
		}

		balance := model.TokenBalance{
			Mint:     info.Mint,
			Symbol:   "Unknown",
			Decimals: info.TokenAmount.Decimals,
		}
		if info.TokenAmount.UIAmount != nil {
			balance.UIAmount = *info.TokenAmount.UIAmount
		}
		if known, ok := knownTokens[info.Mint]; ok {
			balance.Symbol = known.Symbol
			balance.Known = true
		}
		balances = append(balances, balance)
	}

	sort.SliceStable(balances, func(i, j int) bool {
		if balances[i].Known != balances[j].Known {
			return balances[i].Known
		}
		return balances[i].UIAmount > balances[j].UIAmount
	})

	return balances, nil
}
