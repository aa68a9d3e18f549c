package kb

import (
	"context"
	"time"
)

// NewDirectoryParams holds the columns of a directory row being inserted.
type NewDirectoryParams struct {
	Name        string
	ParentID    int64
	Path        string
	Description string
	CreatedAt   time.Time
}

// DirectoryChange holds the columns rewritten by a rename or move.
type DirectoryChange struct {
	ID          int64
	Name        string
	ParentID    *int64
	Path        string
	Description string
	UpdatedAt   time.Time
}

// NewFileParams holds the columns of a file row being inserted.
type NewFileParams struct {
	OriginalName string
	StoredName   string
	Location     string
	Size         int64
	FileType     string
	MimeType     string
	ContentHash  string
	DirectoryID  int64
	Description  string
	CreatedAt    time.Time
}

// FileTotals aggregates live file rows.
type FileTotals struct {
	Files       int64
	Bytes       int64
	UniqueBlobs int64
	StoredBytes int64
}

// Store is the set of metadata queries. Lookups return nil, nil when no live
// row matches; soft-deleted rows are invisible to every method.
type Store interface {
	// Directory operations

	// GetRootDirectory returns the directory carrying the root marker.
	GetRootDirectory(ctx context.Context) (*Directory, error)

	// CreateRootDirectory inserts the root directory. Wraps ErrDuplicate if one exists.
	CreateRootDirectory(ctx context.Context, createdAt time.Time) (*Directory, error)

	// GetDirectory returns a live directory by id.
	GetDirectory(ctx context.Context, id int64) (*Directory, error)

	// FindChildByName returns the live child of parentID with exactly this name.
	FindChildByName(ctx context.Context, parentID int64, name string) (*Directory, error)

	// CreateDirectory inserts a directory. Wraps ErrDuplicate on a sibling name clash.
	CreateDirectory(ctx context.Context, arg NewDirectoryParams) (*Directory, error)

	// UpdateDirectory rewrites name, parent, path and description of one directory.
	// Wraps ErrDuplicate on a sibling name clash.
	UpdateDirectory(ctx context.Context, arg DirectoryChange) (*Directory, error)

	// UpdateDirectoryPath rewrites only the materialized path of one directory.
	UpdateDirectoryPath(ctx context.Context, id int64, path string, updatedAt time.Time) error

	// SoftDeleteDirectory marks a directory deleted. Returns false if it was not live.
	SoftDeleteDirectory(ctx context.Context, id int64, updatedAt time.Time) (bool, error)

	// ListChildDirectories returns the live children of parentID ordered by name.
	ListChildDirectories(ctx context.Context, parentID int64) ([]Directory, error)

	// CountChildDirectories counts the live children of parentID.
	CountChildDirectories(ctx context.Context, parentID int64) (int64, error)

	// ListDirectories returns every live directory ordered by path.
	ListDirectories(ctx context.Context) ([]Directory, error)

	// PageDirectories returns one page of live directories ordered by path.
	PageDirectories(ctx context.Context, limit, offset int64) ([]Directory, error)

	// CountDirectories counts live directories, the root included.
	CountDirectories(ctx context.Context) (int64, error)

	// File operations

	// GetFile returns a live file by id.
	GetFile(ctx context.Context, id int64) (*FileEntry, error)

	// FindFileByHash returns the oldest live file with this content hash.
	FindFileByHash(ctx context.Context, contentHash string) (*FileEntry, error)

	// CreateFile inserts a file row with a zero download count.
	CreateFile(ctx context.Context, arg NewFileParams) (*FileEntry, error)

	// UpdateFileMetadata rewrites the original name and description of a file.
	UpdateFileMetadata(ctx context.Context, id int64, originalName, description string, updatedAt time.Time) (*FileEntry, error)

	// SoftDeleteFile marks a file deleted. Returns false if it was not live.
	SoftDeleteFile(ctx context.Context, id int64, updatedAt time.Time) (bool, error)

	// CountFilesByHash counts live files sharing a content hash.
	CountFilesByHash(ctx context.Context, contentHash string) (int64, error)

	// IncrementDownloadCount adds one to a live file's download count in a
	// single statement. Returns false if the file was not live.
	IncrementDownloadCount(ctx context.Context, id int64) (bool, error)

	// ListFilesByDirectory returns the live files of a directory, newest first.
	ListFilesByDirectory(ctx context.Context, directoryID int64) ([]FileEntry, error)

	// PageFiles returns one page of live files, newest first. A nil
	// directoryID pages across all directories.
	PageFiles(ctx context.Context, directoryID *int64, limit, offset int64) ([]FileEntry, error)

	// CountFiles counts live files, optionally restricted to one directory.
	CountFiles(ctx context.Context, directoryID *int64) (int64, error)

	// FileTotals aggregates sizes and distinct content hashes over live files.
	FileTotals(ctx context.Context) (*FileTotals, error)
}

// Database is the metadata store. Methods of the embedded Store run outside any
// transaction; ExecTx runs fn against a Store bound to a single transaction,
// committing when fn returns nil and rolling back otherwise. Inside fn only
// the provided Store may be used.
type Database interface {
	Store

	ExecTx(ctx context.Context, fn func(Store) error) error

	// CheckMigrations verifies the schema is at the version this binary expects.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
