package kb

import "math"

// Default paging limits.
const (
	DefaultPageSize int64 = 20
	MaxPageSize     int64 = 100
)

// PageRequest asks for page Current (1-based) of Size records.
type PageRequest struct {
	Current int64
	Size    int64
}

// Page is one page of records plus the totals needed to render a pager.
type Page[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Size    int64 `json:"size"`
	Current int64 `json:"current"`
	Pages   int64 `json:"pages"`
}

// Pagination holds the configured page size limits.
type Pagination struct {
	DefaultSize int64
	MaxSize     int64
}

// DefaultPagination returns the built-in limits.
func DefaultPagination() Pagination {
	return Pagination{DefaultSize: DefaultPageSize, MaxSize: MaxPageSize}
}

// Normalize clamps a request: a size above the maximum becomes the maximum, a
// non-positive size becomes the default, and a page below 1 becomes 1. A page
// whose offset would not fit in an int64 becomes the last page that does.
func (p Pagination) Normalize(req PageRequest) PageRequest {
	def, limit := p.DefaultSize, p.MaxSize
	if def <= 0 {
		def = DefaultPageSize
	}
	if limit <= 0 {
		limit = MaxPageSize
	}
	if def > limit {
		def = limit
	}

	switch {
	case req.Size <= 0:
		req.Size = def
	case req.Size > limit:
		req.Size = limit
	}
	if req.Current < 1 {
		req.Current = 1
	}
	if last := math.MaxInt64/req.Size + 1; req.Current > last {
		req.Current = last
	}
	return req
}

// Offset is the number of records before this page. req must be normalized.
func (r PageRequest) Offset() int64 {
	return (r.Current - 1) * r.Size
}

// NewPage assembles a Page. req must be normalized.
func NewPage[T any](records []T, total int64, req PageRequest) *Page[T] {
	if records == nil {
		records = []T{}
	}
	return &Page[T]{
		Records: records,
		Total:   total,
		Size:    req.Size,
		Current: req.Current,
		Pages:   (total + req.Size - 1) / req.Size,
	}
}
