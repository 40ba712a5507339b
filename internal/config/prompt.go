package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// PromptPassphrase reads a passphrase from the terminal without echoing.
// Caller must zero the returned slice after use for security.
func PromptPassphrase(label string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run interactively to enter the passphrase")
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	return raw, nil
}

// PromptPassphraseConfirmed prompts twice and verifies both entries match.
func PromptPassphraseConfirmed(label string) ([]byte, error) {
	first, err := PromptPassphrase(label)
	if err != nil {
		return nil, err
	}
	second, err := PromptPassphrase("Repeat to confirm")
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if string(first) != string(second) {
		clear(first)
		return nil, errors.New("passphrases do not match")
	}
	return first, nil
}
