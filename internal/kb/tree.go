package kb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// childPath computes the materialized path of a directory named name under a
// parent whose path is parentPath.
func childPath(parentPath, name string) string {
	if parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}

// isRootAlias reports whether a requested parent id means "the root".
func isRootAlias(id *int64) bool {
	return id == nil || *id == 0
}

// resolveDirectory loads the directory a caller referred to, mapping nil and 0
// to the root. notFound is returned when a concrete id is not live.
func resolveDirectory(ctx context.Context, store Store, id *int64, notFound *Error) (*Directory, error) {
	if isRootAlias(id) {
		root, err := store.GetRootDirectory(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading root directory: %w", err)
		}
		if root == nil {
			return nil, inconsistency("root directory is missing")
		}
		return root, nil
	}

	dir, err := store.GetDirectory(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("loading directory %d: %w", *id, err)
	}
	if dir == nil {
		return nil, newError(notFound, "%s: %d", notFound.Message, *id)
	}
	return dir, nil
}

func mustGetDirectory(ctx context.Context, store Store, id int64) (*Directory, error) {
	return resolveDirectory(ctx, store, &id, ErrDirectoryNotFound)
}

// CreateDirectory creates a directory under in.ParentID (the root when nil or 0).
func (s *KBService) CreateDirectory(ctx context.Context, in CreateDirectoryInput) (*Directory, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	var created *Directory
	err := s.database.ExecTx(ctx, func(tx Store) error {
		parent, err := resolveDirectory(ctx, tx, in.ParentID, ErrParentNotFound)
		if err != nil {
			return err
		}

		existing, err := tx.FindChildByName(ctx, parent.ID, in.Name)
		if err != nil {
			return fmt.Errorf("checking sibling names: %w", err)
		}
		if existing != nil {
			return newError(ErrNameConflict, "directory %q already exists in %s", in.Name, parent.Path)
		}

		created, err = tx.CreateDirectory(ctx, NewDirectoryParams{
			Name:        in.Name,
			ParentID:    parent.ID,
			Path:        childPath(parent.Path, in.Name),
			Description: in.Description,
			CreatedAt:   s.clock.Now(),
		})
		if err != nil {
			if errors.Is(err, ErrDuplicate) {
				return newError(ErrNameConflict, "directory %q already exists in %s", in.Name, parent.Path)
			}
			return fmt.Errorf("inserting directory: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("directory created", "id", created.ID, "path", created.Path)
	return created, nil
}

// UpdateDirectory changes the name and description of a directory. A new name
// rewrites the path of the directory and of every descendant, exactly as a move
// does. The root keeps its name; only its description may change.
func (s *KBService) UpdateDirectory(ctx context.Context, id int64, in UpdateDirectoryInput) (*Directory, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	var (
		updated   *Directory
		rewritten int
	)
	err := s.database.ExecTx(ctx, func(tx Store) error {
		dir, err := mustGetDirectory(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		if dir.IsRoot {
			if in.Name != dir.Name {
				return newError(ErrRootImmutable, "the root directory cannot be renamed")
			}
			updated, err = tx.UpdateDirectory(ctx, DirectoryChange{
				ID:          dir.ID,
				Name:        dir.Name,
				Path:        dir.Path,
				Description: in.Description,
				UpdatedAt:   now,
			})
			return err
		}

		parent, err := mustGetDirectory(ctx, tx, *dir.ParentID)
		if err != nil {
			if errors.Is(err, ErrDirectoryNotFound) {
				return inconsistency("parent %d of directory %d is missing", *dir.ParentID, dir.ID)
			}
			return err
		}

		if in.Name != dir.Name {
			existing, err := tx.FindChildByName(ctx, parent.ID, in.Name)
			if err != nil {
				return fmt.Errorf("checking sibling names: %w", err)
			}
			if existing != nil {
				return newError(ErrNameConflict, "directory %q already exists in %s", in.Name, parent.Path)
			}
		}

		updated, rewritten, err = s.relocate(ctx, tx, dir, parent, in.Name, in.Description, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.markHasChildren(ctx, updated); err != nil {
		return nil, err
	}

	if rewritten > 0 {
		s.metrics.ObserveDirectoryMove(rewritten)
	}
	s.logger.Info("directory updated", "id", updated.ID, "path", updated.Path, "descendants", rewritten)
	return updated, nil
}

// MoveDirectory reparents a directory under newParentID (the root when nil or
// 0) and rewrites the path of every descendant in the same transaction.
func (s *KBService) MoveDirectory(ctx context.Context, id int64, newParentID *int64) (*Directory, error) {
	var (
		moved     *Directory
		oldPath   string
		rewritten int
		noop      bool
	)
	err := s.database.ExecTx(ctx, func(tx Store) error {
		dir, err := mustGetDirectory(ctx, tx, id)
		if err != nil {
			return err
		}
		if dir.IsRoot {
			return newError(ErrRootImmutable, "the root directory cannot be moved")
		}

		target, err := resolveDirectory(ctx, tx, newParentID, ErrDirectoryNotFound)
		if err != nil {
			return err
		}
		if target.ID == *dir.ParentID {
			moved, noop = dir, true
			return nil
		}

		if err := checkNotDescendant(ctx, tx, dir.ID, target); err != nil {
			return err
		}

		existing, err := tx.FindChildByName(ctx, target.ID, dir.Name)
		if err != nil {
			return fmt.Errorf("checking sibling names: %w", err)
		}
		if existing != nil {
			return newError(ErrNameConflict, "directory %q already exists in %s", dir.Name, target.Path)
		}

		oldPath = dir.Path
		moved, rewritten, err = s.relocate(ctx, tx, dir, target, dir.Name, dir.Description, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.markHasChildren(ctx, moved); err != nil {
		return nil, err
	}
	if noop {
		return moved, nil
	}

	s.metrics.ObserveDirectoryMove(rewritten)
	s.logger.Info("directory moved", "id", moved.ID, "from", oldPath, "to", moved.Path, "descendants", rewritten)
	return moved, nil
}

// checkNotDescendant walks from target up to the root and fails when it meets
// movingID. The walk is bounded by the number of live directories so a
// corrupted parent chain cannot loop forever.
func checkNotDescendant(ctx context.Context, tx Store, movingID int64, target *Directory) error {
	total, err := tx.CountDirectories(ctx)
	if err != nil {
		return fmt.Errorf("counting directories: %w", err)
	}

	visited := make(map[int64]struct{})
	cur := target
	for {
		if cur.ID == movingID {
			return newError(ErrMoveCycle, "cannot move directory %d under %s", movingID, target.Path)
		}
		if cur.IsRoot || cur.ParentID == nil {
			return nil
		}
		if _, seen := visited[cur.ID]; seen || int64(len(visited)) >= total {
			return inconsistency("parent chain of directory %d does not reach the root", target.ID)
		}
		visited[cur.ID] = struct{}{}

		parent, err := tx.GetDirectory(ctx, *cur.ParentID)
		if err != nil {
			return fmt.Errorf("loading directory %d: %w", *cur.ParentID, err)
		}
		if parent == nil {
			return inconsistency("parent %d of directory %d is missing", *cur.ParentID, cur.ID)
		}
		cur = parent
	}
}

// relocate writes the new name, parent and description of dir and, when its
// path changes, recomputes the path of every descendant. Returns the updated
// directory and the number of descendants rewritten.
func (s *KBService) relocate(ctx context.Context, tx Store, dir, parent *Directory, name, description string, now time.Time) (*Directory, int, error) {
	newPath := childPath(parent.Path, name)
	updated, err := tx.UpdateDirectory(ctx, DirectoryChange{
		ID:          dir.ID,
		Name:        name,
		ParentID:    &parent.ID,
		Path:        newPath,
		Description: description,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, 0, newError(ErrNameConflict, "directory %q already exists in %s", name, parent.Path)
		}
		return nil, 0, fmt.Errorf("updating directory %d: %w", dir.ID, err)
	}
	if newPath == dir.Path {
		return updated, 0, nil
	}

	n, err := rewriteDescendantPaths(ctx, tx, updated, now)
	if err != nil {
		return nil, 0, err
	}
	return updated, n, nil
}

// rewriteDescendantPaths recomputes the path of every live descendant of top
// from its parent's new path, depth first, using an explicit stack.
func rewriteDescendantPaths(ctx context.Context, tx Store, top *Directory, now time.Time) (int, error) {
	type pending struct {
		id   int64
		path string
	}

	stack := []pending{{id: top.ID, path: top.Path}}
	visited := map[int64]struct{}{top.ID: {}}
	rewritten := 0

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := tx.ListChildDirectories(ctx, cur.id)
		if err != nil {
			return 0, fmt.Errorf("listing children of %d: %w", cur.id, err)
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				return 0, inconsistency("directory %d appears twice below %d", child.ID, top.ID)
			}
			visited[child.ID] = struct{}{}

			p := childPath(cur.path, child.Name)
			if err := tx.UpdateDirectoryPath(ctx, child.ID, p, now); err != nil {
				return 0, fmt.Errorf("rewriting path of %d: %w", child.ID, err)
			}
			stack = append(stack, pending{id: child.ID, path: p})
			rewritten++
		}
	}
	return rewritten, nil
}

// DeleteDirectory soft-deletes a directory with no live subdirectories. Expected
// failures are reported in the result; only faults are returned as errors.
// Files in the directory are left untouched.
func (s *KBService) DeleteDirectory(ctx context.Context, id int64) (*DeleteResult, error) {
	var (
		result  *DeleteResult
		deleted *Directory
	)
	err := s.database.ExecTx(ctx, func(tx Store) error {
		dir, err := tx.GetDirectory(ctx, id)
		if err != nil {
			return fmt.Errorf("loading directory %d: %w", id, err)
		}
		if dir == nil {
			result = failedDelete(ErrDirectoryNotFound)
			return nil
		}
		if dir.IsRoot {
			result = failedDelete(ErrRootImmutable)
			return nil
		}

		children, err := tx.CountChildDirectories(ctx, id)
		if err != nil {
			return fmt.Errorf("counting children of %d: %w", id, err)
		}
		if children > 0 {
			result = failedDelete(ErrHasChildren)
			return nil
		}

		if _, err := tx.SoftDeleteDirectory(ctx, id, s.clock.Now()); err != nil {
			return fmt.Errorf("deleting directory %d: %w", id, err)
		}
		result = &DeleteResult{Success: true, Message: "directory deleted"}
		deleted = dir
		return nil
	})
	if err != nil {
		return nil, err
	}
	if deleted != nil {
		s.logger.Info("directory deleted", "id", id, "path", deleted.Path)
	}
	return result, nil
}

func failedDelete(reason *Error) *DeleteResult {
	return &DeleteResult{Success: false, Code: reason.Code, Message: reason.Message}
}

// GetDirectory returns a live directory.
func (s *KBService) GetDirectory(ctx context.Context, id int64) (*Directory, error) {
	dir, err := mustGetDirectory(ctx, s.database, id)
	if err != nil {
		return nil, err
	}
	if err := s.markHasChildren(ctx, dir); err != nil {
		return nil, err
	}
	return dir, nil
}

// markHasChildren sets HasChildren on dir from a live child count.
func (s *KBService) markHasChildren(ctx context.Context, dir *Directory) error {
	n, err := s.database.CountChildDirectories(ctx, dir.ID)
	if err != nil {
		return fmt.Errorf("counting children of %d: %w", dir.ID, err)
	}
	dir.HasChildren = n > 0
	return nil
}

// markParents sets HasChildren on each of dirs that is the parent of some
// directory in live, which must hold every live directory.
func markParents(dirs, live []Directory) {
	parents := make(map[int64]struct{}, len(live))
	for _, d := range live {
		if d.ParentID != nil {
			parents[*d.ParentID] = struct{}{}
		}
	}
	for i := range dirs {
		_, dirs[i].HasChildren = parents[dirs[i].ID]
	}
}

// ListChildren returns the live subdirectories of parentID (the root when nil or 0).
func (s *KBService) ListChildren(ctx context.Context, parentID *int64) ([]Directory, error) {
	parent, err := resolveDirectory(ctx, s.database, parentID, ErrDirectoryNotFound)
	if err != nil {
		return nil, err
	}
	children, err := s.database.ListChildDirectories(ctx, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("listing children of %d: %w", parent.ID, err)
	}
	for i := range children {
		if err := s.markHasChildren(ctx, &children[i]); err != nil {
			return nil, err
		}
	}
	return children, nil
}

// ListAllDirectories returns every live directory ordered by path.
func (s *KBService) ListAllDirectories(ctx context.Context) ([]Directory, error) {
	dirs, err := s.database.ListDirectories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing directories: %w", err)
	}
	markParents(dirs, dirs)
	return dirs, nil
}

// PageDirectories returns one page of live directories ordered by path.
func (s *KBService) PageDirectories(ctx context.Context, req PageRequest) (*Page[Directory], error) {
	req = s.opts.Pagination.Normalize(req)

	total, err := s.database.CountDirectories(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting directories: %w", err)
	}
	dirs, err := s.database.PageDirectories(ctx, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("paging directories: %w", err)
	}
	for i := range dirs {
		if err := s.markHasChildren(ctx, &dirs[i]); err != nil {
			return nil, err
		}
	}
	return NewPage(dirs, total, req), nil
}

// DirectoryTree assembles all live directories into a forest in one pass. The
// forest is rooted at the root directory; siblings are ordered by name.
func (s *KBService) DirectoryTree(ctx context.Context) ([]*DirectoryNode, error) {
	dirs, err := s.database.ListDirectories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing directories: %w", err)
	}
	markParents(dirs, dirs)

	nodes := make(map[int64]*DirectoryNode, len(dirs))
	for _, d := range dirs {
		nodes[d.ID] = &DirectoryNode{Directory: d, Children: []*DirectoryNode{}}
	}

	roots := []*DirectoryNode{}
	for _, d := range dirs {
		node := nodes[d.ID]
		if d.IsRoot {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*d.ParentID]
		if !ok {
			s.logger.Warn("directory has no live parent", "id", d.ID, "parent_id", *d.ParentID)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}
