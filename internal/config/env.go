package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the application.
type Config struct {
	SolanaRPCURL  string        `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"15s"`
	RPCTimeout    time.Duration `envconfig:"RPC_TIMEOUT" default:"10s"`
	TxPageSize    int           `envconfig:"TX_PAGE_SIZE" default:"5"`
	MountCooldown time.Duration `envconfig:"MOUNT_COOLDOWN" default:"5s"`
	FeeLamports   uint64        `envconfig:"FEE_LAMPORTS" default:"5000"`
	LogPath       string        `envconfig:"LOG_PATH" default:""`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables (prefix COLDSTAR_).
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("coldstar", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// Cluster derives the cluster name from the RPC URL.
func Cluster() string {
	return ClusterOf(Get().SolanaRPCURL)
}

// ClusterOf derives the cluster name from an RPC URL.
func ClusterOf(rpcURL string) string {
	switch {
	case strings.Contains(rpcURL, "devnet"):
		return "devnet"
	case strings.Contains(rpcURL, "testnet"):
		return "testnet"
	default:
		return "mainnet"
	}
}

// ExplorerTxURL builds an explorer link for a transaction signature,
// carrying the cluster query parameter off mainnet.
func ExplorerTxURL(rpcURL, signature string) string {
	base := "https://explorer.solana.com/tx/" + signature
	if c := ClusterOf(rpcURL); c != "mainnet" {
		return base + "?cluster=" + c
	}
	return base
}
