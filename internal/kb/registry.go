package kb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// spooledUpload is an upload payload copied to a temp file while its hash was
// computed, so the blob can be written without holding it in memory.
type spooledUpload struct {
	file *os.File
	size int64
	hash string
	head []byte
}

func (u *spooledUpload) rewind() (io.Reader, error) {
	if _, err := u.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return u.file, nil
}

func (u *spooledUpload) close() {
	name := u.file.Name()
	u.file.Close()
	os.Remove(name)
}

// spool copies at most limit+1 bytes of r to a temp file, hashing as it goes.
// A size above limit means the payload exceeded the ceiling.
func (s *KBService) spool(r io.Reader, limit int64) (*spooledUpload, error) {
	f, err := os.CreateTemp(s.opts.SpoolDir, "kb-upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating spool file: %w", err)
	}
	u := &spooledUpload{file: f}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), io.LimitReader(r, limit+1))
	if err != nil {
		u.close()
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	u.size = n
	u.hash = hex.EncodeToString(h.Sum(nil))

	head := make([]byte, 512)
	read, err := f.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		u.close()
		return nil, fmt.Errorf("reading spool file: %w", err)
	}
	u.head = head[:read]
	return u, nil
}

// UploadFile stores an uploaded file. When a live file with the same content
// hash exists and its blob is still present, that blob is reused and nothing
// is written to the content store. Either the row and any new blob both
// persist, or neither does.
func (s *KBService) UploadFile(ctx context.Context, in UploadInput) (*FileEntry, error) {
	in.OriginalName = strings.TrimSpace(in.OriginalName)
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	payload, err := s.spool(in.Content, s.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	defer payload.close()

	if payload.size == 0 {
		return nil, newError(ErrEmptyFile, "file %q is empty", in.OriginalName)
	}

	dir, err := resolveDirectory(ctx, s.database, in.DirectoryID, ErrDirectoryNotFound)
	if err != nil {
		return nil, err
	}

	if payload.size > s.opts.MaxFileSize {
		return nil, newError(ErrFileTooLarge, "file %q exceeds the limit of %s", in.OriginalName, FormatFileSize(s.opts.MaxFileSize))
	}

	unlock := s.hashLocks.lock(payload.hash)
	defer unlock()

	location, storedName, reused, err := s.reusableBlob(ctx, payload.hash)
	if err != nil {
		return nil, err
	}

	if !reused {
		storedName = StoredName(s.clock.Now(), s.idgen.New(), in.OriginalName)
		body, err := payload.rewind()
		if err != nil {
			return nil, storageError("rewinding upload", err)
		}
		location, err = s.store.Write(ctx, body, strings.TrimPrefix(dir.Path, "/"), storedName)
		if err != nil {
			return nil, storageError("writing blob", err)
		}
	}

	var entry *FileEntry
	err = s.database.ExecTx(ctx, func(tx Store) error {
		// The directory may have been deleted while the blob was written.
		if _, err := mustGetDirectory(ctx, tx, dir.ID); err != nil {
			return err
		}
		ext := FileExtension(in.OriginalName)
		entry, err = tx.CreateFile(ctx, NewFileParams{
			OriginalName: in.OriginalName,
			StoredName:   storedName,
			Location:     location,
			Size:         payload.size,
			FileType:     FileTypeOf(ext),
			MimeType:     DetectMimeType(in.OriginalName, payload.head),
			ContentHash:  payload.hash,
			DirectoryID:  dir.ID,
			Description:  in.Description,
			CreatedAt:    s.clock.Now(),
		})
		if err != nil {
			return fmt.Errorf("inserting file: %w", err)
		}
		return nil
	})
	if err != nil {
		if !reused {
			if delErr := s.store.Delete(ctx, location); delErr != nil {
				s.logger.Error("failed to remove blob after aborted upload", "location", location, "error", delErr)
			}
		}
		return nil, err
	}

	s.metrics.ObserveUpload(reused, entry.Size)
	s.logger.Info("file uploaded",
		"id", entry.ID,
		"name", entry.OriginalName,
		"directory", dir.Path,
		"size", entry.Size,
		"hash", entry.ContentHash,
		"deduplicated", reused,
	)
	entry.DirectoryName = dir.Name
	entry.SizeFormatted = FormatFileSize(entry.Size)
	return entry, nil
}

// reusableBlob looks for a live file with this hash whose blob still exists.
// Must be called with the hash lock held.
func (s *KBService) reusableBlob(ctx context.Context, hash string) (location, storedName string, ok bool, err error) {
	existing, err := s.database.FindFileByHash(ctx, hash)
	if err != nil {
		return "", "", false, fmt.Errorf("looking up content hash: %w", err)
	}
	if existing == nil {
		return "", "", false, nil
	}

	present, err := s.store.Exists(ctx, existing.Location)
	if err != nil {
		return "", "", false, storageError("checking blob", err)
	}
	if !present {
		s.logger.Warn("blob for known hash is missing, storing a new copy", "hash", hash, "location", existing.Location)
		return "", "", false, nil
	}
	return existing.Location, existing.StoredName, true, nil
}

// DownloadFile opens the blob of a live file and counts the download. The
// caller must close the returned content.
func (s *KBService) DownloadFile(ctx context.Context, id int64) (*Download, error) {
	entry, err := s.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, err := s.store.Open(ctx, entry.Location)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			s.logger.Error("blob missing for file", "id", entry.ID, "location", entry.Location)
			return nil, newError(ErrPhysicalFileMissing, "stored content of file %d is missing", entry.ID)
		}
		return nil, storageError("opening blob", err)
	}

	if err := s.IncrementDownloadCount(ctx, id); err != nil {
		rc.Close()
		return nil, err
	}

	s.metrics.ObserveDownload(entry.Size)
	s.logger.Debug("file downloaded", "id", entry.ID, "name", entry.OriginalName)
	return &Download{
		Content:  rc,
		Name:     entry.OriginalName,
		MimeType: entry.MimeType,
		Size:     entry.Size,
	}, nil
}

// IncrementDownloadCount adds one to the download count of a live file.
// Concurrent increments are never lost.
func (s *KBService) IncrementDownloadCount(ctx context.Context, id int64) error {
	ok, err := s.database.IncrementDownloadCount(ctx, id)
	if err != nil {
		return fmt.Errorf("incrementing download count: %w", err)
	}
	if !ok {
		return newError(ErrFileNotFound, "file not found: %d", id)
	}
	return nil
}

// DeleteFile soft-deletes a file and removes its blob once no live file
// references the same content hash. Returns false if the file was not live.
func (s *KBService) DeleteFile(ctx context.Context, id int64) (bool, error) {
	entry, err := s.database.GetFile(ctx, id)
	if err != nil {
		return false, fmt.Errorf("loading file %d: %w", id, err)
	}
	if entry == nil {
		return false, nil
	}

	unlock := s.hashLocks.lock(entry.ContentHash)
	defer unlock()

	var (
		deleted   bool
		remaining int64
	)
	err = s.database.ExecTx(ctx, func(tx Store) error {
		var err error
		deleted, err = tx.SoftDeleteFile(ctx, id, s.clock.Now())
		if err != nil {
			return fmt.Errorf("deleting file %d: %w", id, err)
		}
		if !deleted {
			return nil
		}
		remaining, err = tx.CountFilesByHash(ctx, entry.ContentHash)
		if err != nil {
			return fmt.Errorf("counting references: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	blobRemoved := false
	if remaining == 0 {
		if err := s.store.Delete(ctx, entry.Location); err != nil {
			s.logger.Error("failed to remove unreferenced blob", "location", entry.Location, "error", err)
		} else {
			blobRemoved = true
		}
	}

	s.metrics.ObserveFileDelete(blobRemoved)
	s.logger.Info("file deleted", "id", id, "hash", entry.ContentHash, "references", remaining, "blob_removed", blobRemoved)
	return true, nil
}

// GetFile returns a live file.
func (s *KBService) GetFile(ctx context.Context, id int64) (*FileEntry, error) {
	entry, err := s.database.GetFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading file %d: %w", id, err)
	}
	if entry == nil {
		return nil, newError(ErrFileNotFound, "file not found: %d", id)
	}
	if err := s.describeFile(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// describeFile fills the display fields of one file.
func (s *KBService) describeFile(ctx context.Context, f *FileEntry) error {
	files := []FileEntry{*f}
	if err := s.describeFiles(ctx, files); err != nil {
		return err
	}
	*f = files[0]
	return nil
}

// describeFiles fills the directory name and formatted size of each file,
// loading every distinct directory once. Files whose directory has been
// deleted get an empty name.
func (s *KBService) describeFiles(ctx context.Context, files []FileEntry) error {
	names := make(map[int64]string)
	for i := range files {
		f := &files[i]
		f.SizeFormatted = FormatFileSize(f.Size)

		name, ok := names[f.DirectoryID]
		if !ok {
			dir, err := s.database.GetDirectory(ctx, f.DirectoryID)
			if err != nil {
				return fmt.Errorf("loading directory %d: %w", f.DirectoryID, err)
			}
			if dir != nil {
				name = dir.Name
			}
			names[f.DirectoryID] = name
		}
		f.DirectoryName = name
	}
	return nil
}

// UpdateFile edits the description and, when given, the original name of a file.
func (s *KBService) UpdateFile(ctx context.Context, id int64, in UpdateFileInput) (*FileEntry, error) {
	in.OriginalName = strings.TrimSpace(in.OriginalName)
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	var updated *FileEntry
	err := s.database.ExecTx(ctx, func(tx Store) error {
		entry, err := tx.GetFile(ctx, id)
		if err != nil {
			return fmt.Errorf("loading file %d: %w", id, err)
		}
		if entry == nil {
			return newError(ErrFileNotFound, "file not found: %d", id)
		}
		name := entry.OriginalName
		if in.OriginalName != "" {
			name = in.OriginalName
		}
		updated, err = tx.UpdateFileMetadata(ctx, id, name, in.Description, s.clock.Now())
		if err != nil {
			return fmt.Errorf("updating file %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.describeFile(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// ListFilesInDirectory returns the live files of a directory (the root when nil or 0).
func (s *KBService) ListFilesInDirectory(ctx context.Context, directoryID *int64) ([]FileEntry, error) {
	dir, err := resolveDirectory(ctx, s.database, directoryID, ErrDirectoryNotFound)
	if err != nil {
		return nil, err
	}
	files, err := s.database.ListFilesByDirectory(ctx, dir.ID)
	if err != nil {
		return nil, fmt.Errorf("listing files of %d: %w", dir.ID, err)
	}
	for i := range files {
		files[i].DirectoryName = dir.Name
		files[i].SizeFormatted = FormatFileSize(files[i].Size)
	}
	return files, nil
}

// PageFiles returns one page of live files, optionally restricted to a directory.
func (s *KBService) PageFiles(ctx context.Context, req PageRequest, directoryID *int64) (*Page[FileEntry], error) {
	req = s.opts.Pagination.Normalize(req)

	var filter *int64
	if directoryID != nil {
		dir, err := resolveDirectory(ctx, s.database, directoryID, ErrDirectoryNotFound)
		if err != nil {
			return nil, err
		}
		filter = &dir.ID
	}

	total, err := s.database.CountFiles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting files: %w", err)
	}
	files, err := s.database.PageFiles(ctx, filter, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("paging files: %w", err)
	}
	if err := s.describeFiles(ctx, files); err != nil {
		return nil, err
	}
	return NewPage(files, total, req), nil
}
