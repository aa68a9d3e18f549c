package kb

import (
	"context"
	"fmt"
)

// Statistics counts live directories and files and reports how much storage
// deduplication saved.
func (s *KBService) Statistics(ctx context.Context) (*Statistics, error) {
	dirs, err := s.database.CountDirectories(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting directories: %w", err)
	}

	totals, err := s.database.FileTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("summing files: %w", err)
	}

	return &Statistics{
		TotalDirectories:       dirs,
		TotalFiles:             totals.Files,
		TotalFileSize:          totals.Bytes,
		TotalFileSizeFormatted: FormatFileSize(totals.Bytes),
		UniqueBlobs:            totals.UniqueBlobs,
		StoredBytes:            totals.StoredBytes,
		DedupSavedBytes:        totals.Bytes - totals.StoredBytes,
	}, nil
}
