package content

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hongsenwang01/knowledge-base/internal/encryption"
	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

func TestEncryptedStore(t *testing.T) {
	testStoreBehavior(t, func(t *testing.T) kb.ContentStore {
		enc := encryption.NewTestEncryptor()
		dec, err := enc.Unlock("")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		return NewEncryptedStore(NewMemoryStore(), enc, dec)
	})
}

func TestEncryptedStore_SealsAtRest(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	enc := encryption.NewTestEncryptor()
	dec, err := enc.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	s := NewEncryptedStore(inner, enc, dec)

	loc, err := s.Write(ctx, strings.NewReader("secret"), "d", "a.txt")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	raw := inner.Bytes(loc)
	if raw == nil {
		t.Fatal("inner store holds nothing at the returned location")
	}
	if bytes.Equal(raw, []byte("secret")) {
		t.Error("inner store holds plaintext")
	}
	if got := readBlob(t, s, loc); got != "secret" {
		t.Errorf("Open() content = %q, want %q", got, "secret")
	}
}

func TestEncryptedStore_Locked(t *testing.T) {
	ctx := context.Background()
	s := NewEncryptedStore(NewMemoryStore(), encryption.NewTestEncryptor(), nil)

	loc, err := s.Write(ctx, strings.NewReader("secret"), "", "a.txt")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := s.Open(ctx, loc); !errors.Is(err, ErrLocked) {
		t.Errorf("Open() error = %v, want ErrLocked", err)
	}
}

func TestEncryptedStore_Age(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	enc := encryption.NewAgeEncryptor(dir+"/kb.pub", dir+"/kb.key")
	if err := enc.Setup("passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	dec, err := enc.Unlock("passphrase")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	inner, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	s := NewEncryptedStore(inner, enc, dec)

	payload := strings.Repeat("knowledge base ", 10000)
	loc, err := s.Write(ctx, strings.NewReader(payload), "docs", "big.txt")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := readBlob(t, s, loc); got != payload {
		t.Errorf("Open() returned %d bytes, want %d", len(got), len(payload))
	}
	if got := readBlob(t, inner, loc); strings.Contains(got, "knowledge base") {
		t.Error("blob on disk contains plaintext")
	}
}
