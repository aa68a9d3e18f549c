package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hongsenwang01/knowledge-base/internal/database/migrations"
	"github.com/hongsenwang01/knowledge-base/internal/database/sqlc"
	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// SQLiteDatabase implements kb.Database using SQLite.
type SQLiteDatabase struct {
	*queryStore
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens a SQLite database. path can be a file path or
// ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		queryStore: &queryStore{q: sqlc.New(db)},
		db:         db,
		path:       path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		queryStore: &queryStore{q: sqlc.New(db)},
		db:         db,
	}
}

// OpenConnection opens a SQLite connection pool with foreign keys enforced on
// every connection and write transactions that take the database lock at
// BEGIN, so a read-then-write transaction cannot be overtaken by another
// writer. File databases also use WAL and wait up to 5s for the lock.
// In-memory databases are limited to one connection, since each connection
// would otherwise see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	memory := path == ":memory:"

	dsn := "file:" + path + "?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL"
	if memory {
		dsn = "file::memory:?_foreign_keys=on&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// ExecTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func (s *SQLiteDatabase) ExecTx(ctx context.Context, fn func(kb.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queryStore{q: s.q.WithTx(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate applies pending migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo writes a consistent copy of the database to destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(ctx context.Context, destPath string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// queryStore implements kb.Store over sqlc queries bound either to the pool or
// to a single transaction.
type queryStore struct {
	q *sqlc.Queries
}

// Directory operations

func (s *queryStore) GetRootDirectory(ctx context.Context) (*kb.Directory, error) {
	row, err := s.q.GetRootDirectory(ctx)
	return directoryOrNil(row, err, "finding root directory")
}

func (s *queryStore) CreateRootDirectory(ctx context.Context, createdAt time.Time) (*kb.Directory, error) {
	row, err := s.q.CreateRootDirectory(ctx, sqlc.CreateRootDirectoryParams{
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		return nil, writeError("creating root directory", err)
	}
	return toDirectory(row), nil
}

func (s *queryStore) GetDirectory(ctx context.Context, id int64) (*kb.Directory, error) {
	row, err := s.q.GetDirectory(ctx, id)
	return directoryOrNil(row, err, "finding directory")
}

func (s *queryStore) FindChildByName(ctx context.Context, parentID int64, name string) (*kb.Directory, error) {
	row, err := s.q.FindChildDirectoryByName(ctx, sqlc.FindChildDirectoryByNameParams{
		ParentID: nullID(&parentID),
		Name:     name,
	})
	return directoryOrNil(row, err, "finding directory by name")
}

func (s *queryStore) CreateDirectory(ctx context.Context, arg kb.NewDirectoryParams) (*kb.Directory, error) {
	row, err := s.q.CreateDirectory(ctx, sqlc.CreateDirectoryParams{
		Name:        arg.Name,
		ParentID:    nullID(&arg.ParentID),
		Path:        arg.Path,
		Description: arg.Description,
		CreatedAt:   arg.CreatedAt,
		UpdatedAt:   arg.CreatedAt,
	})
	if err != nil {
		return nil, writeError("creating directory", err)
	}
	return toDirectory(row), nil
}

func (s *queryStore) UpdateDirectory(ctx context.Context, arg kb.DirectoryChange) (*kb.Directory, error) {
	row, err := s.q.UpdateDirectory(ctx, sqlc.UpdateDirectoryParams{
		Name:        arg.Name,
		ParentID:    nullID(arg.ParentID),
		Path:        arg.Path,
		Description: arg.Description,
		UpdatedAt:   arg.UpdatedAt,
		ID:          arg.ID,
	})
	if err != nil {
		return nil, writeError(fmt.Sprintf("updating directory %d", arg.ID), err)
	}
	return toDirectory(row), nil
}

func (s *queryStore) UpdateDirectoryPath(ctx context.Context, id int64, path string, updatedAt time.Time) error {
	err := s.q.UpdateDirectoryPath(ctx, sqlc.UpdateDirectoryPathParams{
		Path:      path,
		UpdatedAt: updatedAt,
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("updating path of directory %d: %w", id, err)
	}
	return nil
}

func (s *queryStore) SoftDeleteDirectory(ctx context.Context, id int64, updatedAt time.Time) (bool, error) {
	n, err := s.q.SoftDeleteDirectory(ctx, sqlc.SoftDeleteDirectoryParams{UpdatedAt: updatedAt, ID: id})
	if err != nil {
		return false, fmt.Errorf("deleting directory %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *queryStore) ListChildDirectories(ctx context.Context, parentID int64) ([]kb.Directory, error) {
	rows, err := s.q.ListChildDirectories(ctx, nullID(&parentID))
	if err != nil {
		return nil, fmt.Errorf("listing child directories: %w", err)
	}
	return toDirectories(rows), nil
}

func (s *queryStore) CountChildDirectories(ctx context.Context, parentID int64) (int64, error) {
	n, err := s.q.CountChildDirectories(ctx, nullID(&parentID))
	if err != nil {
		return 0, fmt.Errorf("counting child directories: %w", err)
	}
	return n, nil
}

func (s *queryStore) ListDirectories(ctx context.Context) ([]kb.Directory, error) {
	rows, err := s.q.ListDirectories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing directories: %w", err)
	}
	return toDirectories(rows), nil
}

func (s *queryStore) PageDirectories(ctx context.Context, limit, offset int64) ([]kb.Directory, error) {
	rows, err := s.q.PageDirectories(ctx, sqlc.PageDirectoriesParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("paging directories: %w", err)
	}
	return toDirectories(rows), nil
}

func (s *queryStore) CountDirectories(ctx context.Context) (int64, error) {
	n, err := s.q.CountDirectories(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting directories: %w", err)
	}
	return n, nil
}

// File operations

func (s *queryStore) GetFile(ctx context.Context, id int64) (*kb.FileEntry, error) {
	row, err := s.q.GetFile(ctx, id)
	return fileOrNil(row, err, "finding file")
}

func (s *queryStore) FindFileByHash(ctx context.Context, contentHash string) (*kb.FileEntry, error) {
	row, err := s.q.FindFileByHash(ctx, contentHash)
	return fileOrNil(row, err, "finding file by hash")
}

func (s *queryStore) CreateFile(ctx context.Context, arg kb.NewFileParams) (*kb.FileEntry, error) {
	row, err := s.q.CreateFile(ctx, sqlc.CreateFileParams{
		OriginalName: arg.OriginalName,
		StoredName:   arg.StoredName,
		Location:     arg.Location,
		FileSize:     arg.Size,
		FileType:     arg.FileType,
		MimeType:     arg.MimeType,
		ContentHash:  arg.ContentHash,
		DirectoryID:  arg.DirectoryID,
		Description:  arg.Description,
		CreatedAt:    arg.CreatedAt,
		UpdatedAt:    arg.CreatedAt,
	})
	if err != nil {
		return nil, writeError("creating file", err)
	}
	return toFile(row), nil
}

func (s *queryStore) UpdateFileMetadata(ctx context.Context, id int64, originalName, description string, updatedAt time.Time) (*kb.FileEntry, error) {
	row, err := s.q.UpdateFileMetadata(ctx, sqlc.UpdateFileMetadataParams{
		OriginalName: originalName,
		Description:  description,
		UpdatedAt:    updatedAt,
		ID:           id,
	})
	if err != nil {
		return nil, fmt.Errorf("updating file %d: %w", id, err)
	}
	return toFile(row), nil
}

func (s *queryStore) SoftDeleteFile(ctx context.Context, id int64, updatedAt time.Time) (bool, error) {
	n, err := s.q.SoftDeleteFile(ctx, sqlc.SoftDeleteFileParams{UpdatedAt: updatedAt, ID: id})
	if err != nil {
		return false, fmt.Errorf("deleting file %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *queryStore) CountFilesByHash(ctx context.Context, contentHash string) (int64, error) {
	n, err := s.q.CountFilesByHash(ctx, contentHash)
	if err != nil {
		return 0, fmt.Errorf("counting files by hash: %w", err)
	}
	return n, nil
}

func (s *queryStore) IncrementDownloadCount(ctx context.Context, id int64) (bool, error) {
	n, err := s.q.IncrementDownloadCount(ctx, id)
	if err != nil {
		return false, fmt.Errorf("incrementing download count of %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *queryStore) ListFilesByDirectory(ctx context.Context, directoryID int64) ([]kb.FileEntry, error) {
	rows, err := s.q.ListFilesByDirectory(ctx, directoryID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return toFiles(rows), nil
}

func (s *queryStore) PageFiles(ctx context.Context, directoryID *int64, limit, offset int64) ([]kb.FileEntry, error) {
	var (
		rows []sqlc.File
		err  error
	)
	if directoryID == nil {
		rows, err = s.q.PageFiles(ctx, sqlc.PageFilesParams{Limit: limit, Offset: offset})
	} else {
		rows, err = s.q.PageFilesByDirectory(ctx, sqlc.PageFilesByDirectoryParams{
			DirectoryID: *directoryID,
			Limit:       limit,
			Offset:      offset,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("paging files: %w", err)
	}
	return toFiles(rows), nil
}

func (s *queryStore) CountFiles(ctx context.Context, directoryID *int64) (int64, error) {
	var (
		n   int64
		err error
	)
	if directoryID == nil {
		n, err = s.q.CountFiles(ctx)
	} else {
		n, err = s.q.CountFilesByDirectory(ctx, *directoryID)
	}
	if err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return n, nil
}

func (s *queryStore) FileTotals(ctx context.Context) (*kb.FileTotals, error) {
	files, err := s.q.FileTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("summing files: %w", err)
	}
	blobs, err := s.q.BlobTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("summing blobs: %w", err)
	}
	return &kb.FileTotals{
		Files:       files.TotalFiles,
		Bytes:       files.TotalBytes,
		UniqueBlobs: blobs.UniqueBlobs,
		StoredBytes: blobs.StoredBytes,
	}, nil
}

// Row mapping

func directoryOrNil(row sqlc.Directory, err error, op string) (*kb.Directory, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return toDirectory(row), nil
}

func fileOrNil(row sqlc.File, err error, op string) (*kb.FileEntry, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return toFile(row), nil
}

// writeError wraps kb.ErrDuplicate around unique constraint violations so the
// service can report them as name conflicts.
func writeError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w: %v", op, kb.ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func toDirectory(row sqlc.Directory) *kb.Directory {
	d := &kb.Directory{
		ID:          row.ID,
		Name:        row.Name,
		IsRoot:      row.IsRoot,
		Path:        row.Path,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Status:      kb.Status(row.Status),
	}
	if row.ParentID.Valid {
		parent := row.ParentID.Int64
		d.ParentID = &parent
	}
	return d
}

func toDirectories(rows []sqlc.Directory) []kb.Directory {
	dirs := make([]kb.Directory, 0, len(rows))
	for _, row := range rows {
		dirs = append(dirs, *toDirectory(row))
	}
	return dirs
}

func toFile(row sqlc.File) *kb.FileEntry {
	return &kb.FileEntry{
		ID:            row.ID,
		OriginalName:  row.OriginalName,
		StoredName:    row.StoredName,
		Location:      row.Location,
		Size:          row.FileSize,
		FileType:      row.FileType,
		MimeType:      row.MimeType,
		ContentHash:   row.ContentHash,
		DirectoryID:   row.DirectoryID,
		Description:   row.Description,
		DownloadCount: row.DownloadCount,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		Status:        kb.Status(row.Status),
	}
}

func toFiles(rows []sqlc.File) []kb.FileEntry {
	files := make([]kb.FileEntry, 0, len(rows))
	for _, row := range rows {
		files = append(files, *toFile(row))
	}
	return files
}

// Compile-time check that SQLiteDatabase implements kb.Database
var _ kb.Database = (*SQLiteDatabase)(nil)
