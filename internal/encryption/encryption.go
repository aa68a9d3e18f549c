// Package encryption provides at-rest encryption for stored blobs.
package encryption

import (
	"errors"
	"io"
)

// ErrKeysExist is returned by Setup when a key pair is already present.
// Replacing it would make every blob written so far unreadable.
var ErrKeysExist = errors.New("encryption keys already exist")

// Encryptor seals blobs with a public key. Sealing needs no passphrase;
// opening requires Unlock.
type Encryptor interface {
	// Setup generates a key pair, storing the private half encrypted with passphrase.
	Setup(passphrase string) error

	// IsConfigured reports whether a key pair is available.
	IsConfigured() bool

	// Encrypt returns a writer that seals everything written to it into w.
	// The returned writer must be closed to flush the final chunk.
	Encrypt(w io.Writer) (io.WriteCloser, error)

	// Unlock decrypts the private key and returns a Decryptor holding it in memory.
	Unlock(passphrase string) (Decryptor, error)
}

// Decryptor opens blobs sealed by the matching Encryptor.
type Decryptor interface {
	// Decrypt returns a reader yielding the plaintext of r.
	Decrypt(r io.Reader) (io.Reader, error)
}
