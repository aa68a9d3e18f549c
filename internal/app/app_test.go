package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hongsenwang01/knowledge-base/internal/config"
	"github.com/hongsenwang01/knowledge-base/internal/content"
	"github.com/hongsenwang01/knowledge-base/internal/encryption"
	"github.com/hongsenwang01/knowledge-base/internal/kb"
	"github.com/hongsenwang01/knowledge-base/internal/testutil"
)

// newTestConfig returns a config rooted in a temp dir with an in-memory
// database and filesystem blob storage.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts Options) *KBApp {
	t.Helper()
	a, err := openTestApp(cfg, opts)
	if err != nil {
		t.Fatalf("NewKBApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func openTestApp(cfg *config.Config, opts Options) (*KBApp, error) {
	if opts.Operation == "" {
		opts.Operation = "Test"
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}
	if opts.Clock == nil {
		opts.Clock = testutil.FixedClock()
	}
	if opts.IDs == nil {
		opts.IDs = testutil.NewStubIDGenerator()
	}
	return NewKBApp(context.Background(), cfg, opts)
}

func writeLocalFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return p
}

func TestNewKBApp(t *testing.T) {
	t.Run("wires from config and logs the operation", func(t *testing.T) {
		cfg := newTestConfig(t)
		a, err := openTestApp(cfg, Options{Operation: "Stats"})
		if err != nil {
			t.Fatalf("NewKBApp() error = %v", err)
		}

		if a.Root().Path != "/" || !a.Root().IsRoot {
			t.Errorf("Root() = %+v", a.Root())
		}
		if _, err := a.Statistics(context.Background()); err != nil {
			t.Fatalf("Statistics() error = %v", err)
		}
		if err := a.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(cfg.LogDir, LogFileName))
		if err != nil {
			t.Fatalf("reading log: %v", err)
		}
		want := "\t20260314T092653Z-00000001\toperation finished\toperation=Stats\tstatus=success"
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %q:\n%s", want, data)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Storage.Type = "ftp"
		if _, err := openTestApp(cfg, Options{}); err == nil {
			t.Error("NewKBApp() expected error for unknown storage type")
		}
	})

	t.Run("sqlite requires migration", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Database = config.DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(cfg.BaseDir, "db")}

		_, err := openTestApp(cfg, Options{})
		if err == nil || !strings.Contains(err.Error(), "kb db migrate") {
			t.Fatalf("NewKBApp() error = %v, want migration hint", err)
		}

		a, err := openTestApp(cfg, Options{Migrate: true})
		if err != nil {
			t.Fatalf("NewKBApp(Migrate) error = %v", err)
		}
		if _, err := a.MakeDirectory(context.Background(), "/docs", "", false); err != nil {
			t.Fatalf("MakeDirectory() error = %v", err)
		}
		a.Close()

		a = newTestApp(t, cfg, Options{})
		if _, err := a.ResolveDirectory(context.Background(), "/docs"); err != nil {
			t.Errorf("ResolveDirectory() after reopen error = %v", err)
		}
	})
}

func TestKBApp_Directories(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t), Options{})

	if _, err := a.MakeDirectory(ctx, "/docs/reports", "", false); !errors.Is(err, kb.ErrParentNotFound) {
		t.Fatalf("MakeDirectory() without parents error = %v, want ErrParentNotFound", err)
	}
	if a.op.Status != StatusError {
		t.Errorf("operation status = %q, want %q", a.op.Status, StatusError)
	}

	reports, err := a.MakeDirectory(ctx, "docs/reports/", "quarterly", true)
	if err != nil {
		t.Fatalf("MakeDirectory(parents) error = %v", err)
	}
	if reports.Path != "/docs/reports" || reports.Description != "quarterly" {
		t.Errorf("created = %+v", reports)
	}

	again, err := a.MakeDirectory(ctx, "/docs/reports", "", true)
	if err != nil || again.ID != reports.ID {
		t.Errorf("MakeDirectory(parents) on existing = %+v, %v", again, err)
	}
	if _, err := a.MakeDirectory(ctx, "/docs/reports", "", false); !errors.Is(err, kb.ErrNameConflict) {
		t.Errorf("MakeDirectory() on existing error = %v, want ErrNameConflict", err)
	}
	if _, err := a.MakeDirectory(ctx, "/", "", true); !errors.Is(err, kb.ErrRootImmutable) {
		t.Errorf("MakeDirectory(/) error = %v, want ErrRootImmutable", err)
	}

	t.Run("resolve", func(t *testing.T) {
		tests := []struct {
			path    string
			wantID  int64
			wantErr error
		}{
			{"", a.Root().ID, nil},
			{"/", a.Root().ID, nil},
			{"//docs//reports", reports.ID, nil},
			{"/docs/missing", 0, kb.ErrDirectoryNotFound},
			{"/Docs", 0, kb.ErrDirectoryNotFound},
		}
		for _, tt := range tests {
			dir, err := a.ResolveDirectory(ctx, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ResolveDirectory(%q) error = %v, want %v", tt.path, err, tt.wantErr)
				}
				continue
			}
			if err != nil || dir.ID != tt.wantID {
				t.Errorf("ResolveDirectory(%q) = %+v, %v", tt.path, dir, err)
			}
		}
	})

	t.Run("move and rename", func(t *testing.T) {
		if _, err := a.MakeDirectory(ctx, "/archive", "", false); err != nil {
			t.Fatalf("MakeDirectory() error = %v", err)
		}
		moved, err := a.MoveDirectory(ctx, "/docs/reports", "/archive")
		if err != nil {
			t.Fatalf("MoveDirectory() error = %v", err)
		}
		if moved.Path != "/archive/reports" {
			t.Errorf("moved path = %q", moved.Path)
		}

		renamed, err := a.RenameDirectory(ctx, "/archive/reports", "old-reports")
		if err != nil {
			t.Fatalf("RenameDirectory() error = %v", err)
		}
		if renamed.Path != "/archive/old-reports" || renamed.Description != "quarterly" {
			t.Errorf("renamed = %+v", renamed)
		}

		if _, err := a.MoveDirectory(ctx, "/archive", "/archive/old-reports"); !errors.Is(err, kb.ErrMoveCycle) {
			t.Errorf("MoveDirectory() into descendant error = %v, want ErrMoveCycle", err)
		}
	})

	t.Run("list and tree", func(t *testing.T) {
		listing, err := a.ListDirectory(ctx, "/")
		if err != nil {
			t.Fatalf("ListDirectory() error = %v", err)
		}
		var names []string
		for _, d := range listing.Directories {
			names = append(names, d.Name)
		}
		if strings.Join(names, ",") != "archive,docs" {
			t.Errorf("children = %v", names)
		}

		nodes, err := a.Tree(ctx)
		if err != nil {
			t.Fatalf("Tree() error = %v", err)
		}
		if len(nodes) != 1 || len(nodes[0].Children) != 2 {
			t.Errorf("Tree() = %+v", nodes)
		}
	})

	t.Run("remove", func(t *testing.T) {
		res, err := a.RemoveDirectory(ctx, "/archive")
		if err != nil {
			t.Fatalf("RemoveDirectory() error = %v", err)
		}
		if res.Success || res.Code != kb.CodeHasChildren {
			t.Errorf("RemoveDirectory(/archive) = %+v, want HAS_CHILDREN", res)
		}

		res, err = a.RemoveDirectory(ctx, "/archive/old-reports")
		if err != nil || !res.Success {
			t.Fatalf("RemoveDirectory() = %+v, %v", res, err)
		}
		if _, err := a.ResolveDirectory(ctx, "/archive/old-reports"); !errors.Is(err, kb.ErrDirectoryNotFound) {
			t.Errorf("removed directory still resolves: %v", err)
		}
	})
}

func TestKBApp_Files(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t), Options{})
	local := t.TempDir()

	if _, err := a.MakeDirectory(ctx, "/docs", "", false); err != nil {
		t.Fatalf("MakeDirectory() error = %v", err)
	}
	src := writeLocalFile(t, local, "notes.txt", "hello world")

	entry, err := a.UploadFile(ctx, src, "/docs", "weekly")
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if entry.OriginalName != "notes.txt" || entry.Size != 11 || entry.Description != "weekly" {
		t.Errorf("entry = %+v", entry)
	}

	if _, err := a.UploadFile(ctx, src, "/missing", ""); !errors.Is(err, kb.ErrDirectoryNotFound) {
		t.Errorf("UploadFile() into missing dir error = %v", err)
	}
	if _, err := a.UploadFile(ctx, filepath.Join(local, "nope.txt"), "/", ""); err == nil {
		t.Error("UploadFile() expected error for missing local file")
	}

	t.Run("download", func(t *testing.T) {
		out := t.TempDir()
		written, err := a.DownloadFile(ctx, entry.ID, out)
		if err != nil {
			t.Fatalf("DownloadFile() error = %v", err)
		}
		if written != filepath.Join(out, "notes.txt") {
			t.Errorf("written = %q", written)
		}
		data, err := os.ReadFile(written)
		if err != nil || string(data) != "hello world" {
			t.Errorf("downloaded = %q, %v", data, err)
		}

		if _, err := a.DownloadFile(ctx, entry.ID, out); err == nil {
			t.Error("DownloadFile() expected error when target exists")
		}

		info, err := a.FileInfo(ctx, entry.ID)
		if err != nil {
			t.Fatalf("FileInfo() error = %v", err)
		}
		if info.DownloadCount != 2 {
			t.Errorf("DownloadCount = %d, want 2", info.DownloadCount)
		}
	})

	t.Run("list and stats", func(t *testing.T) {
		listing, err := a.ListDirectory(ctx, "/docs")
		if err != nil {
			t.Fatalf("ListDirectory() error = %v", err)
		}
		if len(listing.Files) != 1 || listing.Files[0].ID != entry.ID {
			t.Errorf("files = %+v", listing.Files)
		}

		stats, err := a.Statistics(ctx)
		if err != nil {
			t.Fatalf("Statistics() error = %v", err)
		}
		if stats.TotalDirectories != 2 || stats.TotalFiles != 1 || stats.TotalFileSize != 11 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("remove", func(t *testing.T) {
		removed, err := a.RemoveFile(ctx, entry.ID)
		if err != nil || !removed {
			t.Fatalf("RemoveFile() = %v, %v", removed, err)
		}
		removed, err = a.RemoveFile(ctx, entry.ID)
		if err != nil || removed {
			t.Errorf("second RemoveFile() = %v, %v", removed, err)
		}
		if _, err := a.FileInfo(ctx, entry.ID); !errors.Is(err, kb.ErrFileNotFound) {
			t.Errorf("FileInfo() after remove error = %v", err)
		}
	})
}

func TestKBApp_Encryption(t *testing.T) {
	ctx := context.Background()

	t.Run("sealed blobs need unlock to read", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Database = config.DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(cfg.BaseDir, "db")}
		cfg.Encryption = config.EncryptionConfig{Enabled: true, Type: "test"}
		src := writeLocalFile(t, t.TempDir(), "secret.txt", "top secret")

		writer := newTestApp(t, cfg, Options{Migrate: true})
		entry, err := writer.UploadFile(ctx, src, "/", "")
		if err != nil {
			t.Fatalf("UploadFile() error = %v", err)
		}

		raw, err := os.ReadFile(filepath.Join(cfg.Storage.Root, filepath.FromSlash(entry.Location)))
		if err != nil {
			t.Fatalf("reading blob: %v", err)
		}
		if bytes.Equal(raw, []byte("top secret")) {
			t.Error("blob stored in plaintext")
		}

		if _, err := writer.DownloadFile(ctx, entry.ID, t.TempDir()); !errors.Is(err, content.ErrLocked) {
			t.Errorf("DownloadFile() on locked store error = %v, want ErrLocked", err)
		}

		reader := newTestApp(t, cfg, Options{Unlock: true, Passphrase: func() (string, error) { return "pw", nil }})
		written, err := reader.DownloadFile(ctx, entry.ID, t.TempDir())
		if err != nil {
			t.Fatalf("DownloadFile() error = %v", err)
		}
		if data, _ := os.ReadFile(written); string(data) != "top secret" {
			t.Errorf("downloaded = %q", data)
		}
	})

	t.Run("unlock without passphrase source", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Encryption = config.EncryptionConfig{Enabled: true, Type: "test"}
		if _, err := openTestApp(cfg, Options{Unlock: true}); err == nil {
			t.Error("NewKBApp() expected error without a passphrase")
		}
	})

	t.Run("age keys", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Encryption.Enabled = true

		if _, err := openTestApp(cfg, Options{}); err == nil || !strings.Contains(err.Error(), "kb keys init") {
			t.Fatalf("NewKBApp() without keys error = %v", err)
		}

		if err := SetupEncryption(cfg.Encryption, "correct horse"); err != nil {
			t.Fatalf("SetupEncryption() error = %v", err)
		}
		if err := SetupEncryption(cfg.Encryption, "other"); !errors.Is(err, encryption.ErrKeysExist) {
			t.Errorf("second SetupEncryption() error = %v, want ErrKeysExist", err)
		}

		if _, err := openTestApp(cfg, Options{Unlock: true, Passphrase: func() (string, error) { return "wrong", nil }}); err == nil {
			t.Error("NewKBApp() expected error for a wrong passphrase")
		}

		a := newTestApp(t, cfg, Options{Unlock: true, Passphrase: func() (string, error) { return "correct horse", nil }})
		entry, err := a.UploadFile(ctx, writeLocalFile(t, t.TempDir(), "a.txt", "sealed with age"), "/", "")
		if err != nil {
			t.Fatalf("UploadFile() error = %v", err)
		}
		written, err := a.DownloadFile(ctx, entry.ID, t.TempDir())
		if err != nil {
			t.Fatalf("DownloadFile() error = %v", err)
		}
		if data, _ := os.ReadFile(written); string(data) != "sealed with age" {
			t.Errorf("downloaded = %q", data)
		}
	})
}

func TestKBApp_Handler(t *testing.T) {
	a := newTestApp(t, newTestConfig(t), Options{})

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/directories/tree", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/directories/tree status = %d, body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "kb_http_requests_total") {
		t.Error("metrics endpoint does not expose request counters")
	}
}

func TestKBApp_Serve(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.Addr = "127.0.0.1:0"
	a := newTestApp(t, cfg, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Serve(ctx); err != nil {
		t.Errorf("Serve() with cancelled context error = %v", err)
	}
}

func TestKBApp_BackupDatabase(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, newTestConfig(t), Options{})
	if _, err := a.MakeDirectory(ctx, "/docs", "", false); err != nil {
		t.Fatalf("MakeDirectory() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "backups", "kb.db")
	if err := a.BackupDatabase(ctx, dest); err != nil {
		t.Fatalf("BackupDatabase() error = %v", err)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		t.Errorf("backup file: %v", err)
	}

	if err := a.BackupDatabase(ctx, dest); err == nil {
		t.Error("BackupDatabase() expected error when target exists")
	}
}
