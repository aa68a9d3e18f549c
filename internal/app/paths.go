package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// splitPath returns the names along a slash-separated directory path.
// Empty segments are dropped, so "", "/" and "//" all name the root.
func splitPath(p string) []string {
	var names []string
	for _, name := range strings.Split(p, "/") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func joinPath(names []string) string {
	return "/" + strings.Join(names, "/")
}

// ResolveDirectory finds the live directory at a slash-separated path such as
// "/docs/reports". Names are matched exactly.
func (a *KBApp) ResolveDirectory(ctx context.Context, dirPath string) (*kb.Directory, error) {
	names := splitPath(dirPath)
	dir := a.root
	for i, name := range names {
		next, err := a.lookupChild(ctx, dir, name)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("%s: %w", joinPath(names[:i+1]), kb.ErrDirectoryNotFound)
		}
		dir = next
	}
	return dir, nil
}

// lookupChild returns the live child of parent called name, or nil.
func (a *KBApp) lookupChild(ctx context.Context, parent *kb.Directory, name string) (*kb.Directory, error) {
	children, err := a.service.ListChildren(ctx, &parent.ID)
	if err != nil {
		return nil, err
	}
	for i := range children {
		if children[i].Name == name {
			return &children[i], nil
		}
	}
	return nil, nil
}

// ensureChild returns the child of parent called name, creating it when absent.
// created reports whether a new directory was made.
func (a *KBApp) ensureChild(ctx context.Context, parent *kb.Directory, name, description string) (dir *kb.Directory, created bool, err error) {
	dir, err = a.service.CreateDirectory(ctx, kb.CreateDirectoryInput{
		Name:        name,
		ParentID:    &parent.ID,
		Description: description,
	})
	if err == nil {
		return dir, true, nil
	}
	if !errors.Is(err, kb.ErrNameConflict) {
		return nil, false, err
	}

	dir, err = a.lookupChild(ctx, parent, strings.TrimSpace(name))
	if err != nil {
		return nil, false, err
	}
	if dir == nil {
		return nil, false, fmt.Errorf("directory %q reported as existing in %s but not found", name, parent.Path)
	}
	return dir, false, nil
}
