package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hongsenwang01/knowledge-base/internal/encryption"
	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// ErrLocked is returned when reading from an EncryptedStore that was built
// without a Decryptor.
var ErrLocked = errors.New("content store is locked: no decryption key")

// EncryptedStore seals blobs before handing them to the wrapped store and
// opens them on the way out. Locations are those of the wrapped store.
type EncryptedStore struct {
	inner kb.ContentStore
	enc   encryption.Encryptor
	dec   encryption.Decryptor
}

var _ kb.ContentStore = (*EncryptedStore)(nil)

// NewEncryptedStore wraps inner. dec may be nil for a write-only store.
func NewEncryptedStore(inner kb.ContentStore, enc encryption.Encryptor, dec encryption.Decryptor) *EncryptedStore {
	return &EncryptedStore{inner: inner, enc: enc, dec: dec}
}

func (s *EncryptedStore) Write(ctx context.Context, r io.Reader, dir, name string) (string, error) {
	pr, pw := io.Pipe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		w, err := s.enc.Encrypt(pw)
		if err == nil {
			_, err = io.Copy(w, r)
			if cerr := w.Close(); err == nil {
				err = cerr
			}
		}
		pw.CloseWithError(err)
	}()

	loc, err := s.inner.Write(ctx, pr, dir, name)
	// Unblocks the sealing goroutine if the inner store stopped reading early;
	// r must not be touched by it once Write returns.
	pr.CloseWithError(errors.New("content store write finished"))
	<-done
	if err != nil {
		return "", fmt.Errorf("writing sealed blob: %w", err)
	}
	return loc, nil
}

func (s *EncryptedStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if s.dec == nil {
		return nil, ErrLocked
	}

	rc, err := s.inner.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	plain, err := s.dec.Decrypt(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("opening sealed blob %s: %w", location, err)
	}
	return readCloser{Reader: plain, Closer: rc}, nil
}

func (s *EncryptedStore) Exists(ctx context.Context, location string) (bool, error) {
	return s.inner.Exists(ctx, location)
}

func (s *EncryptedStore) Delete(ctx context.Context, location string) error {
	return s.inner.Delete(ctx, location)
}

type readCloser struct {
	io.Reader
	io.Closer
}
