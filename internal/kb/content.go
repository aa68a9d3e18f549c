package kb

import (
	"context"
	"io"
)

// ContentStore holds physical blobs. It is purely location-addressed: it keeps
// no reference counts, which are derived from live file rows instead.
type ContentStore interface {
	// Write stores the blob read from r under dir/name and returns its location.
	// Missing parent directories are created. On failure nothing is left behind.
	Write(ctx context.Context, r io.Reader, dir, name string) (string, error)

	// Open returns a reader for the blob at location. Wraps ErrBlobNotFound
	// when the location holds nothing.
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// Exists reports whether a blob is present at location.
	Exists(ctx context.Context, location string) (bool, error)

	// Delete removes the blob at location. Deleting an absent blob succeeds.
	Delete(ctx context.Context, location string) error
}
