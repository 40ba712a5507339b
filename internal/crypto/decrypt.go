package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/scrypt"

	"coldstar/internal/model"
)

// ReadContainer reads and parses a container file without decrypting it.
// The private key stays inside the ciphertext.
func ReadContainer(filePath string) (*model.ContainerFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("container file does not exist")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("container file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		fileData = fileData[3:]
	}

	var container model.ContainerFile
	if err := json.Unmarshal(fileData, &container); err != nil {
		return nil, fmt.Errorf("failed to unmarshal container file: %w", err)
	}

	// Sanity-check the encrypted fields so a corrupt file fails at load,
	// not at signing time
	checks := []struct {
		name   string
		value  string
		length int // expected decoded length, 0 for any
	}{
		{"salt", container.Salt, saltLen},
		{"nonce", container.Nonce, nonceLen},
		{"cipherText", container.CipherText, 0},
	}
	for _, c := range checks {
		if c.value == "" {
			return nil, fmt.Errorf("container file is missing %s", c.name)
		}
		raw, err := base64.StdEncoding.DecodeString(c.value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", c.name, err)
		}
		if c.length > 0 && len(raw) != c.length {
			return nil, fmt.Errorf("container %s is %d bytes, want %d", c.name, len(raw), c.length)
		}
	}

	return &container, nil
}

// DecryptMaterial decrypts the key material held in a parsed container.
// password must be []byte for security (caller should zero it after use);
// the caller must also clear material.PrivateKey as soon as it is done.
func DecryptMaterial(container *model.ContainerFile, password []byte) (*model.KeyMaterial, error) {
	salt, err := base64.StdEncoding.DecodeString(container.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(container.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	// GCM panics on a wrong-size nonce; a truncated container must fail
	// as an error instead
	if len(nonce) != nonceLen {
		return nil, fmt.Errorf("container nonce is %d bytes, want %d", len(nonce), nonceLen)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(container.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	// Derive key from password
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	// Decrypt
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("invalid password")
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var material model.KeyMaterial
	if err := json.Unmarshal(plaintext, &material); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key material: %w", err)
	}

	return &material, nil
}

// DecryptContainer reads and decrypts a container file in one step.
// password must be []byte for security (caller should zero it after use)
func DecryptContainer(filePath string, password []byte) (*model.ContainerFile, *model.KeyMaterial, error) {
	container, err := ReadContainer(filePath)
	if err != nil {
		return nil, nil, err
	}
	material, err := DecryptMaterial(container, password)
	if err != nil {
		return nil, nil, err
	}
	return container, material, nil
}

// ReadContainerAddress reads only the address from a container file
// (without decryption)
func ReadContainerAddress(filePath string) (string, error) {
	container, err := ReadContainer(filePath)
	if err != nil {
		return "", err
	}
	return container.Address, nil
}
