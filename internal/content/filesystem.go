package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// FileSystemStore keeps blobs as regular files below a root directory, laid
// out by the directory path at upload time. Later moves and renames of that
// directory leave the blob where it is:
//
//	<root>/
//	  <dir path>/
//	    <stored name>
type FileSystemStore struct {
	root string
}

var _ kb.ContentStore = (*FileSystemStore)(nil)

// NewFileSystemStore creates a store rooted at root, creating it if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

// Root returns the directory blobs are stored under.
func (s *FileSystemStore) Root() string {
	return s.root
}

func (s *FileSystemStore) Write(ctx context.Context, r io.Reader, dir, name string) (string, error) {
	loc, err := Location(dir, name)
	if err != nil {
		return "", err
	}
	dest := s.resolve(loc)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if _, err := os.Lstat(dest); err == nil {
		return "", fmt.Errorf("blob already exists at %s", loc)
	}

	if err := writeFile(dest, contextReader{ctx: ctx, r: r}); err != nil {
		return "", err
	}
	return loc, nil
}

func (s *FileSystemStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := checkLocation(location); err != nil {
		return nil, err
	}
	f, err := os.Open(s.resolve(location))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kb.ErrBlobNotFound, location)
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

func (s *FileSystemStore) Exists(ctx context.Context, location string) (bool, error) {
	if err := checkLocation(location); err != nil {
		return false, err
	}
	info, err := os.Stat(s.resolve(location))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

func (s *FileSystemStore) Delete(ctx context.Context, location string) error {
	if err := checkLocation(location); err != nil {
		return err
	}
	if err := os.Remove(s.resolve(location)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the storage root is an accessible directory.
func (s *FileSystemStore) ValidateSetup() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("storage root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root is not a directory: %s", s.root)
	}
	return nil
}

func (s *FileSystemStore) resolve(location string) string {
	return filepath.Join(s.root, filepath.FromSlash(location))
}

// writeFile copies r to destPath through a temp file in the same directory,
// so readers never observe a partially written blob.
func writeFile(destPath string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
