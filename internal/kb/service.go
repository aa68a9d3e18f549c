package kb

import (
	"context"
	"fmt"
)

// DefaultMaxFileSize is the upload ceiling used when none is configured.
const DefaultMaxFileSize int64 = 100 << 20

// Options holds the externally supplied limits of a KBService.
type Options struct {
	// MaxFileSize is the largest accepted upload in bytes.
	MaxFileSize int64
	// Pagination bounds the page sizes of listing operations.
	Pagination Pagination
	// SpoolDir receives uploads while they are hashed. Empty means os.TempDir.
	SpoolDir string
}

// KBService coordinates the directory tree, the file registry and the content
// store. It is safe for concurrent use.
type KBService struct {
	database  Database
	store     ContentStore
	opts      Options
	metrics   Metrics
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	hashLocks keyedLock
}

// NewKBService creates a KBService with the provided dependencies. Zero
// option values fall back to the defaults and a nil metrics discards counters.
func NewKBService(database Database, store ContentStore, opts Options, metrics Metrics, logger Logger, clock Clock, idgen IDGenerator) *KBService {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Pagination.DefaultSize <= 0 || opts.Pagination.MaxSize <= 0 {
		opts.Pagination = DefaultPagination()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &KBService{
		database: database,
		store:    store,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// EnsureRoot returns the root directory, creating it when the database has
// none. Migrations seed the root, so this only inserts on bare schemas.
func (s *KBService) EnsureRoot(ctx context.Context) (*Directory, error) {
	root, err := s.database.GetRootDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading root directory: %w", err)
	}
	if root != nil {
		return root, nil
	}

	root, err = s.database.CreateRootDirectory(ctx, s.clock.Now())
	if err != nil {
		// Lost a race against another bootstrap.
		if again, lookupErr := s.database.GetRootDirectory(ctx); lookupErr == nil && again != nil {
			return again, nil
		}
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	s.logger.Info("root directory created", "id", root.ID)
	return root, nil
}

// MaxFileSize returns the configured upload ceiling.
func (s *KBService) MaxFileSize() int64 {
	return s.opts.MaxFileSize
}
