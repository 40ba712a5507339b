// Package signer is the session's only point of contact with decrypted key
// material. Key bytes exist exclusively inside SignTransferSecure, for the
// duration of one call, and are wiped before it returns.
package signer

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"coldstar/internal/crypto"
	"coldstar/internal/model"
)

// ValidateAddress reports whether s parses as a Solana public key.
func ValidateAddress(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}

// Container is an opaque handle to the still-encrypted key container read
// from the device. Loading never decrypts; a wrong passphrase surfaces at
// signing time.
type Container struct {
	file *model.ContainerFile
}

// Address returns the plaintext address recorded in the container.
func (c *Container) Address() string {
	return c.file.Address
}

// LoadContainer reads the encrypted container from the device path and
// validates its structure. A missing or unreadable file (device pulled
// mid-flow) is a SigningError, not a crash.
func LoadContainer(path string) (*Container, error) {
	file, err := crypto.ReadContainer(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSigning, err)
	}
	return &Container{file: file}, nil
}

// SignTransferSecure decrypts the container, signs the unsigned transaction
// and returns the serialized signed payload. The passphrase and the decrypted
// key live only for the duration of this call; both are cleared before return
// regardless of outcome. The caller must not reuse the passphrase slice.
func SignTransferSecure(tx *solana.Transaction, c *Container, passphrase []byte) ([]byte, error) {
	defer clear(passphrase)

	material, err := crypto.DecryptMaterial(c.file, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSigning, err)
	}
	defer clear(material.PrivateKey)

	// We store the full 64-byte key
	if len(material.PrivateKey) != 64 {
		return nil, fmt.Errorf("%w: invalid private key length", model.ErrSigning)
	}

	wallet := solana.PrivateKey(material.PrivateKey)

	// Verify the key matches the address the container claims
	owner, err := solana.PublicKeyFromBase58(c.file.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid container address: %v", model.ErrSigning, err)
	}
	if !wallet.PublicKey().Equals(owner) {
		return nil, fmt.Errorf("%w: private key does not match container address", model.ErrSigning)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if wallet.PublicKey().Equals(key) {
			return &wallet
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSigning, err)
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize signed transaction: %v", model.ErrSigning, err)
	}

	return signed, nil
}
