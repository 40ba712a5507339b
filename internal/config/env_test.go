package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClusterOf(t *testing.T) {
	assert.Equal(t, "mainnet", ClusterOf("https://api.mainnet-beta.solana.com"))
	assert.Equal(t, "devnet", ClusterOf("https://api.devnet.solana.com"))
	assert.Equal(t, "testnet", ClusterOf("https://api.testnet.solana.com"))
}

func TestExplorerTxURL(t *testing.T) {
	assert.Equal(t,
		"https://explorer.solana.com/tx/abc",
		ExplorerTxURL("https://api.mainnet-beta.solana.com", "abc"))
	assert.Equal(t,
		"https://explorer.solana.com/tx/abc?cluster=devnet",
		ExplorerTxURL("https://api.devnet.solana.com", "abc"))
}
