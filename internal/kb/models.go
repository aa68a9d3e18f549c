package kb

import (
	"io"
	"time"
)

// Status marks a row as live or soft-deleted. Deleted rows are never returned
// by reads and their ids are never reassigned.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// RootName is the name stored on the single root directory.
const RootName = "root"

// Directory is a node in the directory tree. Path is materialized: the root is
// "/", a child of the root is "/<name>", and every other directory is
// "<parent path>/<name>". HasChildren is derived on read.
type Directory struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ParentID    *int64    `json:"parentId"`
	IsRoot      bool      `json:"isRoot"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
	HasChildren bool      `json:"hasChildren"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Status      Status    `json:"-"`
}

// DirectoryNode is a Directory with its live children attached.
type DirectoryNode struct {
	Directory
	Children []*DirectoryNode `json:"children"`
}

// FileEntry is the metadata row for an uploaded file. Several entries may share
// a ContentHash, and with it a single physical blob at Location.
// DirectoryName and SizeFormatted are filled in by the service on read.
type FileEntry struct {
	ID            int64     `json:"id"`
	OriginalName  string    `json:"originalName"`
	StoredName    string    `json:"storedName"`
	Location      string    `json:"-"`
	Size          int64     `json:"fileSize"`
	SizeFormatted string    `json:"fileSizeFormatted"`
	FileType      string    `json:"fileType"`
	MimeType      string    `json:"mimeType"`
	ContentHash   string    `json:"contentHash"`
	DirectoryID   int64     `json:"directoryId"`
	DirectoryName string    `json:"directoryName"`
	Description   string    `json:"description"`
	DownloadCount int64     `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Status        Status    `json:"-"`
}

// CreateDirectoryInput describes a directory to create. A nil or zero ParentID
// places the directory under the root.
type CreateDirectoryInput struct {
	Name        string
	ParentID    *int64
	Description string
}

// UpdateDirectoryInput carries the editable fields of a directory.
type UpdateDirectoryInput struct {
	Name        string
	Description string
}

// DeleteResult reports the outcome of a directory delete. Expected business
// failures are reported here instead of as an error.
type DeleteResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// UploadInput is a file upload. A nil or zero DirectoryID targets the root.
type UploadInput struct {
	Content      io.Reader
	OriginalName string
	DirectoryID  *int64
	Description  string
}

// UpdateFileInput edits file metadata. An empty OriginalName keeps the current one.
type UpdateFileInput struct {
	OriginalName string
	Description  string
}

// Download is an open blob ready to be streamed to a caller, who must close Content.
type Download struct {
	Content  io.ReadCloser
	Name     string
	MimeType string
	Size     int64
}

// Statistics summarizes live directories, files and blob storage.
type Statistics struct {
	TotalDirectories       int64  `json:"totalDirectories"`
	TotalFiles             int64  `json:"totalFiles"`
	TotalFileSize          int64  `json:"totalFileSize"`
	TotalFileSizeFormatted string `json:"totalFileSizeFormatted"`
	UniqueBlobs            int64  `json:"uniqueBlobs"`
	StoredBytes            int64  `json:"storedBytes"`
	DedupSavedBytes        int64  `json:"dedupSavedBytes"`
}
