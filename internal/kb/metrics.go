package kb

// Metrics receives counters from KBService. A nil Metrics passed to
// NewKBService is replaced with a no-op implementation.
type Metrics interface {
	// ObserveUpload records a completed upload. deduplicated is true when the
	// blob of an existing file was reused instead of written.
	ObserveUpload(deduplicated bool, bytes int64)

	// ObserveDownload records a download that was handed to the caller.
	ObserveDownload(bytes int64)

	// ObserveFileDelete records a file delete and whether its blob was removed.
	ObserveFileDelete(blobRemoved bool)

	// ObserveDirectoryMove records a move or rename that rewrote paths.
	ObserveDirectoryMove(rewritten int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveUpload(bool, int64) {}
func (nopMetrics) ObserveDownload(int64)     {}
func (nopMetrics) ObserveFileDelete(bool)    {}
func (nopMetrics) ObserveDirectoryMove(int)  {}
