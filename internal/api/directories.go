package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

type createDirectoryRequest struct {
	Name        string `json:"name"`
	ParentID    *int64 `json:"parentId"`
	Description string `json:"description"`
}

type updateDirectoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type moveDirectoryRequest struct {
	NewParentID *int64 `json:"newParentId"`
}

// ListDirectories handles GET /api/directories.
func (h *Handler) ListDirectories(w http.ResponseWriter, r *http.Request) {
	dirs, err := h.svc.ListAllDirectories(r.Context())
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, nonNil(dirs))
}

// PageDirectories handles GET /api/directories/page.
func (h *Handler) PageDirectories(w http.ResponseWriter, r *http.Request) {
	req, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := h.svc.PageDirectories(r.Context(), req)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, page)
}

// DirectoryTree handles GET /api/directories/tree.
func (h *Handler) DirectoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.DirectoryTree(r.Context())
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, tree)
}

// ListChildren handles GET /api/directories/parent/{id}.
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	parentID, ok := directoryParam(w, chi.URLParam(r, "id"), "parent id")
	if !ok {
		return
	}
	children, err := h.svc.ListChildren(r.Context(), parentID)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, nonNil(children))
}

// GetDirectory handles GET /api/directories/{id}.
func (h *Handler) GetDirectory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	dir, err := h.svc.GetDirectory(r.Context(), id)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, dir)
}

// CreateDirectory handles POST /api/directories.
func (h *Handler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	var req createDirectoryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	dir, err := h.svc.CreateDirectory(r.Context(), kb.CreateDirectoryInput{
		Name:        req.Name,
		ParentID:    req.ParentID,
		Description: req.Description,
	})
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	Created(w, dir)
}

// UpdateDirectory handles PUT /api/directories/{id}.
func (h *Handler) UpdateDirectory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req updateDirectoryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	dir, err := h.svc.UpdateDirectory(r.Context(), id, kb.UpdateDirectoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, dir)
}

// MoveDirectory handles PATCH /api/directories/{id}/move.
func (h *Handler) MoveDirectory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req moveDirectoryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	dir, err := h.svc.MoveDirectory(r.Context(), id, req.NewParentID)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, dir)
}

// DeleteDirectory handles DELETE /api/directories/{id}. Refusals carry the
// DeleteResult as data under the status of their code.
func (h *Handler) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.DeleteDirectory(r.Context(), id)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	if result.Success {
		OK(w, result)
		return
	}

	status := http.StatusConflict
	if result.Code == kb.CodeDirectoryNotFound {
		status = http.StatusNotFound
	}
	JSON(w, status, Result{
		Code:      status,
		Message:   result.Message,
		ErrorCode: result.Code,
		Data:      result,
		Timestamp: now(),
	})
}

// nonNil keeps empty lists encoded as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
