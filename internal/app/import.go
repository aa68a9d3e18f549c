package app

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/hongsenwang01/knowledge-base/internal/fs"
	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// ImportSummary counts what an import did.
type ImportSummary struct {
	DirectoriesCreated int
	DirectoriesReused  int
	Files              int
	Bytes              int64
	Skipped            []ImportSkip
}

// ImportSkip is a local entry that was not imported.
type ImportSkip struct {
	Path   string
	Reason string
}

// Import mirrors the local directory tree at localDir under the directory at
// dirPath and uploads every file in it. Entries matching the configured
// ignore patterns or the patterns in localDir/.kbignore are left out.
// Directories that already exist are reused. Entries the service rejects as
// invalid (empty or oversized files, unusable names) are skipped and
// reported; any other failure stops the import.
func (a *KBApp) Import(ctx context.Context, localDir, dirPath string) (*ImportSummary, error) {
	summary, err := a.importTree(ctx, localDir, dirPath)
	return summary, a.op.Record(err)
}

func (a *KBApp) importTree(ctx context.Context, localDir, dirPath string) (*ImportSummary, error) {
	target, err := a.ResolveDirectory(ctx, dirPath)
	if err != nil {
		return nil, err
	}

	ignore := fs.NewIgnoreMatcher(a.cfg.Import.Ignore)
	patterns, err := fs.ParseIgnoreFile(filepath.Join(localDir, fs.IgnoreFileName))
	if err != nil {
		return nil, err
	}
	ignore.Add(patterns...)

	entries, err := fs.Walk(localDir, ignore)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	dirs := map[string]*kb.Directory{".": target}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		parent, ok := dirs[path.Dir(e.RelPath)]
		if !ok {
			// The parent was skipped, and so is everything below it.
			continue
		}
		name := path.Base(e.RelPath)

		if e.IsDir {
			dir, created, err := a.ensureChild(ctx, parent, name, "")
			if err != nil {
				if kb.KindOf(err) == kb.KindInvalidInput {
					summary.skip(e.RelPath, err)
					continue
				}
				return summary, fmt.Errorf("importing directory %s: %w", e.RelPath, err)
			}
			dirs[e.RelPath] = dir
			if created {
				summary.DirectoriesCreated++
			} else {
				summary.DirectoriesReused++
			}
			continue
		}

		entry, err := a.uploadLocal(ctx, filepath.Join(localDir, filepath.FromSlash(e.RelPath)), name, parent, "")
		if err != nil {
			if kb.KindOf(err) == kb.KindInvalidInput {
				summary.skip(e.RelPath, err)
				continue
			}
			return summary, fmt.Errorf("importing file %s: %w", e.RelPath, err)
		}
		summary.Files++
		summary.Bytes += entry.Size
	}

	a.logger.Info("import finished",
		"source", localDir,
		"target", target.Path,
		"directories", summary.DirectoriesCreated,
		"files", summary.Files,
		"skipped", len(summary.Skipped))
	return summary, nil
}

func (s *ImportSummary) skip(relPath string, err error) {
	s.Skipped = append(s.Skipped, ImportSkip{Path: relPath, Reason: err.Error()})
}
