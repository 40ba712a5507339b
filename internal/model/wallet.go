package model

// ContainerFile is the on-device encrypted key container
// (<mount>/wallet/keypair.json). The private key lives only inside
// CipherText; everything else is plaintext metadata.
type ContainerFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// KeyMaterial is the decrypted container payload.
type KeyMaterial struct {
	PrivateKey []byte `json:"privateKey"` // 64-byte key (base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}
