// Package content implements kb.ContentStore backends. A location is a
// slash-separated relative path such as "docs/reports/20260314092653_ab12cd34.pdf";
// each backend maps it onto its own namespace.
package content

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
)

// Location joins a directory path and a blob name into a location.
// dir may be empty for blobs stored at the top level.
func Location(dir, name string) (string, error) {
	loc := path.Join(dir, name)
	if err := checkLocation(loc); err != nil {
		return "", err
	}
	return loc, nil
}

func checkLocation(loc string) error {
	if loc == "" || loc == "." || !fs.ValidPath(loc) {
		return fmt.Errorf("invalid blob location %q", loc)
	}
	return nil
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
