// Command keygen provisions a removable device with a fresh wallet: an
// encrypted keypair container plus a plaintext public key file, laid out
// the way the console expects to find them.
//
// Usage: keygen <mounted-device-dir>
package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"
	qrcode "github.com/skip2/go-qrcode"

	"coldstar/internal/config"
	"coldstar/internal/crypto"
	"coldstar/internal/device"
	"coldstar/internal/model"
)

const networkSolana = "solana"

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: keygen <mounted-device-dir>")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	containerPath := filepath.Join(dir, device.ContainerRelPath)
	pubkeyPath := filepath.Join(dir, device.PubkeyRelPath)
	if info, err := os.Stat(containerPath); err == nil && info.Size() > 0 {
		if existing, readErr := crypto.ReadContainerAddress(containerPath); readErr == nil {
			return fmt.Errorf("%s already holds wallet %s, refusing to overwrite", dir, existing)
		}
		return fmt.Errorf("%s already holds a wallet, refusing to overwrite", dir)
	}

	passphrase, err := config.PromptPassphraseConfirmed("Choose a wallet passphrase")
	if err != nil {
		return err
	}
	defer clear(passphrase)

	wallet := solana.NewWallet()
	defer clear(wallet.PrivateKey)
	address := wallet.PublicKey().String()

	qrPNG, err := qrCodePNG(address)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	material := &model.KeyMaterial{
		PrivateKey: wallet.PrivateKey,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}
	if err := crypto.EncryptContainer(containerPath, networkSolana, address, qrPNG, material, passphrase); err != nil {
		return fmt.Errorf("failed to encrypt wallet: %w", err)
	}
	if err := os.WriteFile(pubkeyPath, []byte(address+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write public key file: %w", err)
	}

	fmt.Println("wallet created")
	fmt.Println("address:", address)
	if qr, err := qrcode.New("solana:"+address, qrcode.Medium); err == nil {
		fmt.Println(qr.ToSmallString(false))
	}
	return nil
}

// qrCodePNG renders the address QR as base64 PNG for the container file.
func qrCodePNG(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", err
	}
	png, err := qr.PNG(256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
