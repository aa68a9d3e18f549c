// Package fs reads local directory trees for bulk import.
package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Entry is one directory or regular file of a local tree.
type Entry struct {
	// RelPath is slash-separated and relative to the walked root.
	RelPath string
	IsDir   bool
	Size    int64
}

// Walk lists root in lexical order, directories before their contents.
// Ignored directories are pruned. Symlinks, devices, pipes and sockets are
// skipped, as is the ignore file itself.
func Walk(root string, ignore *IgnoreMatcher) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat import root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import root is not a directory: %s", root)
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignore.Match(rel, true) {
				return filepath.SkipDir
			}
			entries = append(entries, Entry{RelPath: rel, IsDir: true})
			return nil
		}
		if !d.Type().IsRegular() || rel == IgnoreFileName || ignore.Match(rel, false) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		entries = append(entries, Entry{RelPath: rel, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return entries, nil
}
