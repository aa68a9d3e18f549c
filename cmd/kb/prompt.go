package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// passphraseEnv lets scripts and services supply the key passphrase.
const passphraseEnv = "KB_PASSPHRASE"

// promptPassphrase prompts for a passphrase without echoing
func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pass, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(pass), nil
	}

	// Fall back to reading from stdin (for piped input)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// unlockPassphrase reads the passphrase from KB_PASSPHRASE, prompting when unset.
func unlockPassphrase() (string, error) {
	if pass := os.Getenv(passphraseEnv); pass != "" {
		return pass, nil
	}
	return promptPassphrase("Passphrase: ")
}

// newPassphrase asks for a new passphrase twice.
func newPassphrase() (string, error) {
	if pass := os.Getenv(passphraseEnv); pass != "" {
		return pass, nil
	}
	pass, err := promptPassphrase("New passphrase: ")
	if err != nil {
		return "", err
	}
	confirm, err := promptPassphrase("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", errors.New("passphrases do not match")
	}
	if pass == "" {
		return "", errors.New("passphrase must not be empty")
	}
	return pass, nil
}
