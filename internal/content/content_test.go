package content

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// testStoreBehavior runs the checks every kb.ContentStore must pass.
func testStoreBehavior(t *testing.T, newStore func(t *testing.T) kb.ContentStore) {
	ctx := context.Background()

	t.Run("write then open", func(t *testing.T) {
		s := newStore(t)

		loc, err := s.Write(ctx, strings.NewReader("hello world"), "docs/reports", "a.txt")
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if loc != "docs/reports/a.txt" {
			t.Errorf("Write() location = %q, want %q", loc, "docs/reports/a.txt")
		}

		if got := readBlob(t, s, loc); got != "hello world" {
			t.Errorf("Open() content = %q, want %q", got, "hello world")
		}
	})

	t.Run("top level blob", func(t *testing.T) {
		s := newStore(t)

		loc, err := s.Write(ctx, strings.NewReader("x"), "", "a.txt")
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if loc != "a.txt" {
			t.Errorf("Write() location = %q, want %q", loc, "a.txt")
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		s := newStore(t)

		if _, err := s.Write(ctx, strings.NewReader("one"), "d", "a.txt"); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if _, err := s.Write(ctx, strings.NewReader("two"), "d", "a.txt"); err == nil {
			t.Error("second Write() to the same location succeeded")
		}
		if got := readBlob(t, s, "d/a.txt"); got != "one" {
			t.Errorf("content = %q, want %q", got, "one")
		}
	})

	t.Run("rejects escaping locations", func(t *testing.T) {
		s := newStore(t)

		for _, dir := range []string{"../outside", "/abs"} {
			if _, err := s.Write(ctx, strings.NewReader("x"), dir, "a.txt"); err == nil {
				t.Errorf("Write(dir=%q) succeeded, want error", dir)
			}
		}
	})

	t.Run("missing blob", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Open(ctx, "nope/a.txt")
		if !errors.Is(err, kb.ErrBlobNotFound) {
			t.Errorf("Open() error = %v, want ErrBlobNotFound", err)
		}

		ok, err := s.Exists(ctx, "nope/a.txt")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if ok {
			t.Error("Exists() = true for missing blob")
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)

		loc, err := s.Write(ctx, strings.NewReader("x"), "d", "a.txt")
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := s.Delete(ctx, loc); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := s.Delete(ctx, loc); err != nil {
			t.Errorf("second Delete() error = %v", err)
		}

		ok, err := s.Exists(ctx, loc)
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if ok {
			t.Error("Exists() = true after Delete")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := s.Write(cctx, strings.NewReader("x"), "d", "a.txt"); err == nil {
			t.Error("Write() with cancelled context succeeded")
		}
	})
}

func readBlob(t *testing.T, s kb.ContentStore, loc string) string {
	t.Helper()
	rc, err := s.Open(context.Background(), loc)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", loc, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading %q: %v", loc, err)
	}
	return string(data)
}

func TestMemoryStore(t *testing.T) {
	testStoreBehavior(t, func(t *testing.T) kb.ContentStore {
		return NewMemoryStore()
	})
}

func TestFileSystemStore(t *testing.T) {
	testStoreBehavior(t, func(t *testing.T) kb.ContentStore {
		s, err := NewFileSystemStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		return s
	})
}

func TestLocation(t *testing.T) {
	tests := []struct {
		dir, name string
		want      string
		wantErr   bool
	}{
		{dir: "", name: "a.txt", want: "a.txt"},
		{dir: "docs", name: "a.txt", want: "docs/a.txt"},
		{dir: "docs/2026", name: "a.txt", want: "docs/2026/a.txt"},
		{dir: "..", name: "a.txt", wantErr: true},
		{dir: "/docs", name: "a.txt", wantErr: true},
		{dir: "", name: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Location(tt.dir, tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Location(%q, %q) error = %v, wantErr %v", tt.dir, tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Location(%q, %q) = %q, want %q", tt.dir, tt.name, got, tt.want)
		}
	}
}
