package model

// NetworkInfo is the chain metadata shown on the network panel.
type NetworkInfo struct {
	Version string
	Slot    uint64
	Epoch   uint64
}

// Blockhash is a recent blockhash with its expiry height.
type Blockhash struct {
	Hash                 string
	LastValidBlockHeight uint64
}
