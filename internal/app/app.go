package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hongsenwang01/knowledge-base/internal/api"
	"github.com/hongsenwang01/knowledge-base/internal/config"
	"github.com/hongsenwang01/knowledge-base/internal/content"
	"github.com/hongsenwang01/knowledge-base/internal/database"
	"github.com/hongsenwang01/knowledge-base/internal/encryption"
	"github.com/hongsenwang01/knowledge-base/internal/kb"
	"github.com/hongsenwang01/knowledge-base/internal/metrics"
)

// Options controls how NewKBApp prepares its dependencies.
type Options struct {
	// Operation names the CLI command being run (e.g. "Upload", "Serve").
	Operation string
	// Migrate applies pending schema migrations instead of requiring an
	// up-to-date database.
	Migrate bool
	// Unlock decrypts the private key so encrypted content can be read.
	// Without it an encrypted store only accepts writes.
	Unlock bool
	// Passphrase supplies the key passphrase when Unlock is set.
	Passphrase func() (string, error)
	// Console receives log lines alongside the log file. Nil means stderr.
	Console io.Writer

	Clock kb.Clock
	IDs   kb.IDGenerator
}

// KBApp is the application layer between the CLI and KBService.
// It constructs all dependencies from config, exposes high-level operations
// that accept slash-separated directory paths, and releases resources on Close.
type KBApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	store   kb.ContentStore
	metrics *metrics.Metrics
	service *kb.KBService
	root    *kb.Directory
	logger  *slog.Logger
	log     kb.Logger
	logFile *os.File
	clock   kb.Clock
	op      *Operation
}

// NewKBApp creates a fully wired KBApp from the given config.
// The caller must call Close when done.
func NewKBApp(ctx context.Context, cfg *config.Config, opts Options) (*KBApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	clock, ids := opts.Clock, opts.IDs
	if clock == nil {
		clock = kb.RealClock{}
	}
	if ids == nil {
		ids = kb.UUIDGenerator{}
	}
	op := NewOperation(opts.Operation, clock.Now(), ids.New())

	logger, logFile, err := newLogger(cfg.LogDir, op.ID, cfg.Log.Level, opts.Console)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	db, err := database.NewDatabaseFromConfig(cfg.Database, opts.Migrate)
	if err != nil {
		logFile.Close()
		if !opts.Migrate {
			return nil, fmt.Errorf("opening database (run 'kb db migrate' after upgrading): %w", err)
		}
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := newContentStore(ctx, cfg, opts)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, err
	}

	m := metrics.New()
	svc := kb.NewKBService(db, store, kb.Options{
		MaxFileSize: cfg.Upload.MaxFileSize,
		Pagination: kb.Pagination{
			DefaultSize: int64(cfg.Pagination.DefaultSize),
			MaxSize:     int64(cfg.Pagination.MaxSize),
		},
		SpoolDir: cfg.Upload.SpoolDir,
	}, m, log, clock, ids)

	root, err := svc.EnsureRoot(ctx)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("loading root directory: %w", err)
	}

	logger.Debug("operation started", "operation", op.Name)
	return &KBApp{
		cfg:     cfg,
		db:      db,
		store:   store,
		metrics: m,
		service: svc,
		root:    root,
		logger:  logger,
		log:     log,
		logFile: logFile,
		clock:   clock,
		op:      op,
	}, nil
}

// newContentStore builds the configured backend, sealed with age when
// encryption is enabled.
func newContentStore(ctx context.Context, cfg *config.Config, opts Options) (kb.ContentStore, error) {
	store, err := content.NewContentStoreFromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating content store: %w", err)
	}
	if !cfg.Encryption.Enabled {
		return store, nil
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if !enc.IsConfigured() {
		return nil, errors.New("encryption is enabled but no keys exist (run 'kb keys init')")
	}

	var dec encryption.Decryptor
	if opts.Unlock {
		if opts.Passphrase == nil {
			return nil, errors.New("a passphrase is required to read encrypted content")
		}
		passphrase, err := opts.Passphrase()
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		dec, err = enc.Unlock(passphrase)
		if err != nil {
			return nil, fmt.Errorf("unlocking encryption key: %w", err)
		}
	}
	return content.NewEncryptedStore(store, enc, dec), nil
}

// SetupEncryption generates the age key pair named by cfg, protecting the
// private key with passphrase. Existing keys are never replaced.
func SetupEncryption(cfg config.EncryptionConfig, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}
	return nil
}

// Service returns the underlying KBService.
func (a *KBApp) Service() *kb.KBService {
	return a.service
}

// Root returns the root directory.
func (a *KBApp) Root() *kb.Directory {
	return a.root
}

// MakeDirectory creates the directory at dirPath. With parents set, missing
// ancestors are created and an existing directory is returned as is.
func (a *KBApp) MakeDirectory(ctx context.Context, dirPath, description string, parents bool) (*kb.Directory, error) {
	names := splitPath(dirPath)
	if len(names) == 0 {
		return nil, a.op.Record(fmt.Errorf("mkdir /: %w", kb.ErrRootImmutable))
	}

	parent := a.root
	for i, name := range names[:len(names)-1] {
		if !parents {
			next, err := a.lookupChild(ctx, parent, name)
			if err != nil {
				return nil, a.op.Record(err)
			}
			if next == nil {
				return nil, a.op.Record(fmt.Errorf("%s: %w", joinPath(names[:i+1]), kb.ErrParentNotFound))
			}
			parent = next
			continue
		}
		next, _, err := a.ensureChild(ctx, parent, name, "")
		if err != nil {
			return nil, a.op.Record(err)
		}
		parent = next
	}

	last := names[len(names)-1]
	if parents {
		dir, _, err := a.ensureChild(ctx, parent, last, description)
		return dir, a.op.Record(err)
	}
	dir, err := a.service.CreateDirectory(ctx, kb.CreateDirectoryInput{
		Name:        last,
		ParentID:    &parent.ID,
		Description: description,
	})
	return dir, a.op.Record(err)
}

// MoveDirectory moves the directory at src under the directory at dstParent.
func (a *KBApp) MoveDirectory(ctx context.Context, src, dstParent string) (*kb.Directory, error) {
	dir, err := a.ResolveDirectory(ctx, src)
	if err != nil {
		return nil, a.op.Record(err)
	}
	parent, err := a.ResolveDirectory(ctx, dstParent)
	if err != nil {
		return nil, a.op.Record(err)
	}
	moved, err := a.service.MoveDirectory(ctx, dir.ID, &parent.ID)
	return moved, a.op.Record(err)
}

// RenameDirectory gives the directory at dirPath a new name, keeping its description.
func (a *KBApp) RenameDirectory(ctx context.Context, dirPath, newName string) (*kb.Directory, error) {
	dir, err := a.ResolveDirectory(ctx, dirPath)
	if err != nil {
		return nil, a.op.Record(err)
	}
	renamed, err := a.service.UpdateDirectory(ctx, dir.ID, kb.UpdateDirectoryInput{
		Name:        newName,
		Description: dir.Description,
	})
	return renamed, a.op.Record(err)
}

// RemoveDirectory deletes the directory at dirPath. Refusals are reported in
// the result rather than as an error.
func (a *KBApp) RemoveDirectory(ctx context.Context, dirPath string) (*kb.DeleteResult, error) {
	dir, err := a.ResolveDirectory(ctx, dirPath)
	if err != nil {
		return nil, a.op.Record(err)
	}
	res, err := a.service.DeleteDirectory(ctx, dir.ID)
	if err == nil && !res.Success {
		a.op.Status = StatusError
	}
	return res, a.op.Record(err)
}

// Tree returns the whole directory tree.
func (a *KBApp) Tree(ctx context.Context) ([]*kb.DirectoryNode, error) {
	nodes, err := a.service.DirectoryTree(ctx)
	return nodes, a.op.Record(err)
}

// Listing is the content of one directory.
type Listing struct {
	Directory   *kb.Directory
	Directories []kb.Directory
	Files       []kb.FileEntry
}

// ListDirectory returns the subdirectories and files of the directory at dirPath.
func (a *KBApp) ListDirectory(ctx context.Context, dirPath string) (*Listing, error) {
	dir, err := a.ResolveDirectory(ctx, dirPath)
	if err != nil {
		return nil, a.op.Record(err)
	}
	dirs, err := a.service.ListChildren(ctx, &dir.ID)
	if err != nil {
		return nil, a.op.Record(err)
	}
	files, err := a.service.ListFilesInDirectory(ctx, &dir.ID)
	if err != nil {
		return nil, a.op.Record(err)
	}
	return &Listing{Directory: dir, Directories: dirs, Files: files}, nil
}

// UploadFile stores the local file at localPath in the directory at dirPath.
func (a *KBApp) UploadFile(ctx context.Context, localPath, dirPath, description string) (*kb.FileEntry, error) {
	dir, err := a.ResolveDirectory(ctx, dirPath)
	if err != nil {
		return nil, a.op.Record(err)
	}
	entry, err := a.uploadLocal(ctx, localPath, filepath.Base(localPath), dir, description)
	return entry, a.op.Record(err)
}

func (a *KBApp) uploadLocal(ctx context.Context, localPath, name string, dir *kb.Directory, description string) (*kb.FileEntry, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	return a.service.UploadFile(ctx, kb.UploadInput{
		Content:      f,
		OriginalName: name,
		DirectoryID:  &dir.ID,
		Description:  description,
	})
}

// DownloadFile writes the content of file id to dest and returns the path
// written. An empty dest or an existing directory receives the file under its
// original name. Existing files are not overwritten.
func (a *KBApp) DownloadFile(ctx context.Context, id int64, dest string) (string, error) {
	dl, err := a.service.DownloadFile(ctx, id)
	if err != nil {
		return "", a.op.Record(err)
	}
	defer dl.Content.Close()

	target := dest
	if target == "" {
		target = dl.Name
	} else if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, dl.Name)
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", a.op.Record(fmt.Errorf("creating %s: %w", target, err))
	}
	if _, err := io.Copy(out, dl.Content); err != nil {
		out.Close()
		os.Remove(target)
		return "", a.op.Record(fmt.Errorf("writing %s: %w", target, err))
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", a.op.Record(fmt.Errorf("closing %s: %w", target, err))
	}
	return target, nil
}

// RemoveFile deletes file id, reporting whether a live file was removed.
func (a *KBApp) RemoveFile(ctx context.Context, id int64) (bool, error) {
	removed, err := a.service.DeleteFile(ctx, id)
	return removed, a.op.Record(err)
}

// FileInfo returns the metadata of file id.
func (a *KBApp) FileInfo(ctx context.Context, id int64) (*kb.FileEntry, error) {
	entry, err := a.service.GetFile(ctx, id)
	return entry, a.op.Record(err)
}

// Statistics returns directory, file and storage totals.
func (a *KBApp) Statistics(ctx context.Context) (*kb.Statistics, error) {
	stats, err := a.service.Statistics(ctx)
	return stats, a.op.Record(err)
}

// Handler returns the HTTP API with middleware, health and metrics routes.
func (a *KBApp) Handler() http.Handler {
	return api.NewRouter(api.NewHandler(a.service, a.log), api.RouterOptions{
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
	}, a.log, a.metrics)
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *KBApp) Serve(ctx context.Context) error {
	srv := api.NewServer(a.cfg.Server, a.Handler(), a.log)
	return a.op.Record(srv.Start(ctx))
}

// BackupDatabase writes a consistent copy of the metadata database to dest.
func (a *KBApp) BackupDatabase(ctx context.Context, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return a.op.Record(fmt.Errorf("creating backup directory: %w", err))
	}
	if _, err := os.Stat(dest); err == nil {
		return a.op.Record(fmt.Errorf("backup target %s already exists", dest))
	}
	return a.op.Record(a.db.BackupTo(ctx, dest))
}

// Close finishes the operation and closes all resources.
func (a *KBApp) Close() error {
	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"duration", a.op.Elapsed(a.clock.Now()).String())

	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
