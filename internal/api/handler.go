package api

import (
	"context"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// Service is the subset of kb.KBService served over HTTP.
type Service interface {
	CreateDirectory(ctx context.Context, in kb.CreateDirectoryInput) (*kb.Directory, error)
	UpdateDirectory(ctx context.Context, id int64, in kb.UpdateDirectoryInput) (*kb.Directory, error)
	MoveDirectory(ctx context.Context, id int64, newParentID *int64) (*kb.Directory, error)
	DeleteDirectory(ctx context.Context, id int64) (*kb.DeleteResult, error)
	GetDirectory(ctx context.Context, id int64) (*kb.Directory, error)
	ListChildren(ctx context.Context, parentID *int64) ([]kb.Directory, error)
	ListAllDirectories(ctx context.Context) ([]kb.Directory, error)
	PageDirectories(ctx context.Context, req kb.PageRequest) (*kb.Page[kb.Directory], error)
	DirectoryTree(ctx context.Context) ([]*kb.DirectoryNode, error)

	UploadFile(ctx context.Context, in kb.UploadInput) (*kb.FileEntry, error)
	DownloadFile(ctx context.Context, id int64) (*kb.Download, error)
	IncrementDownloadCount(ctx context.Context, id int64) error
	DeleteFile(ctx context.Context, id int64) (bool, error)
	GetFile(ctx context.Context, id int64) (*kb.FileEntry, error)
	UpdateFile(ctx context.Context, id int64, in kb.UpdateFileInput) (*kb.FileEntry, error)
	ListFilesInDirectory(ctx context.Context, directoryID *int64) ([]kb.FileEntry, error)
	PageFiles(ctx context.Context, req kb.PageRequest, directoryID *int64) (*kb.Page[kb.FileEntry], error)
	MaxFileSize() int64

	Statistics(ctx context.Context) (*kb.Statistics, error)
}

// Handler serves the directory, file and statistics endpoints.
type Handler struct {
	svc    Service
	logger kb.Logger
}

// NewHandler creates a Handler over svc.
func NewHandler(svc Service, logger kb.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}
