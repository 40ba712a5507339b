// Command rekey changes the passphrase of a wallet container. The key
// material is decrypted with the old passphrase and sealed again with a
// fresh salt and nonce under the new one; the swap is atomic via rename.
//
// Usage: rekey <path-to-keypair.json>
package main

import (
	"fmt"
	"os"
	"strings"

	"coldstar/internal/config"
	"coldstar/internal/crypto"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: rekey <path-to-keypair.json>")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "rekey:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	oldPass, err := config.PromptPassphrase("Current passphrase")
	if err != nil {
		return err
	}
	defer clear(oldPass)

	container, material, err := crypto.DecryptContainer(path, oldPass)
	if err != nil {
		return err
	}
	defer clear(material.PrivateKey)

	newPass, err := config.PromptPassphraseConfirmed("New passphrase")
	if err != nil {
		return err
	}
	defer clear(newPass)

	tmp := strings.TrimSuffix(path, ".json") + ".rekey.json"
	if err := crypto.EncryptContainer(tmp, container.Network, container.Address, container.QR, material, newPass); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace container: %w", err)
	}

	fmt.Println("passphrase changed for", container.Address)
	return nil
}
