package model

// TokenBalance is one SPL token holding of the session's public key.
// Zero-balance accounts are kept: an existing account is still a holding.
type TokenBalance struct {
	Mint     string
	Symbol   string
	Decimals int
	UIAmount float64
	Known    bool // mint found in the known-token registry
}
