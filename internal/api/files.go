package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// multipartOverhead is the allowance for form fields and part headers on top
// of the largest accepted file.
const multipartOverhead = 1 << 20

// maxMemory is the part of a multipart form kept in memory; the rest spills
// to temporary files.
const maxMemory = 8 << 20

type updateFileRequest struct {
	OriginalName string `json:"originalName"`
	Description  string `json:"description"`
}

// UploadFile handles POST /api/files/upload, a multipart form with fields
// file, directoryId and description.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.MaxFileSize()+multipartOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Fail(w, http.StatusRequestEntityTooLarge, kb.CodeFileTooLarge, "file exceeds the size limit")
			return
		}
		BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			Fail(w, http.StatusBadRequest, kb.CodeEmptyFile, "no file was uploaded")
			return
		}
		BadRequest(w, "invalid file part")
		return
	}
	defer file.Close()

	dirID, ok := directoryParam(w, r.FormValue("directoryId"), "directoryId")
	if !ok {
		return
	}

	entry, err := h.svc.UploadFile(r.Context(), kb.UploadInput{
		Content:      file,
		OriginalName: uploadName(header),
		DirectoryID:  dirID,
		Description:  r.FormValue("description"),
	})
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	Created(w, entry)
}

// uploadName strips any client-side directories from the submitted file name.
func uploadName(header *multipart.FileHeader) string {
	name := header.Filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// ListDirectoryFiles handles GET /api/files/directory/{id}.
func (h *Handler) ListDirectoryFiles(w http.ResponseWriter, r *http.Request) {
	dirID, ok := directoryParam(w, chi.URLParam(r, "id"), "directory id")
	if !ok {
		return
	}
	files, err := h.svc.ListFilesInDirectory(r.Context(), dirID)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, nonNil(files))
}

// PageFiles handles GET /api/files/page. Without directoryId every live file
// is paged; directoryId=0 or root restricts to the root directory.
func (h *Handler) PageFiles(w http.ResponseWriter, r *http.Request) {
	req, ok := pageParams(w, r)
	if !ok {
		return
	}

	var dirID *int64
	if raw := r.URL.Query().Get("directoryId"); raw != "" {
		id, ok := directoryParam(w, raw, "directoryId")
		if !ok {
			return
		}
		if id == nil {
			id = new(int64)
		}
		dirID = id
	}

	page, err := h.svc.PageFiles(r.Context(), req, dirID)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, page)
}

// GetFile handles GET /api/files/{id}.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.svc.GetFile(r.Context(), id)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, entry)
}

// UpdateFile handles PUT /api/files/{id}.
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req updateFileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	entry, err := h.svc.UpdateFile(r.Context(), id, kb.UpdateFileInput{
		OriginalName: req.OriginalName,
		Description:  req.Description,
	})
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, entry)
}

// DeleteFile handles DELETE /api/files/{id}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteFile(r.Context(), id)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	if !deleted {
		Fail(w, http.StatusNotFound, kb.CodeFileNotFound, "file not found: "+strconv.FormatInt(id, 10))
		return
	}
	OK(w, nil)
}

// IncrementDownloadCount handles PUT /api/files/{id}/download.
func (h *Handler) IncrementDownloadCount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.IncrementDownloadCount(r.Context(), id); err != nil {
		Error(w, h.logger, err)
		return
	}
	OK(w, nil)
}

// DownloadFile handles GET /api/files/download/{id}, streaming the blob as an
// attachment.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	dl, err := h.svc.DownloadFile(r.Context(), id)
	if err != nil {
		Error(w, h.logger, err)
		return
	}
	defer dl.Content.Close()

	header := w.Header()
	header.Set("Content-Type", downloadContentType(dl.MimeType))
	header.Set("Content-Disposition", "attachment; filename*=UTF-8''"+encodeFilename(dl.Name))
	header.Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	header.Set("Cache-Control", "no-cache")
	header.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Content); err != nil {
		h.logger.Warn("download interrupted", "id", id, "error", err)
	}
}

// encodeFilename percent-encodes a file name for the RFC 5987 filename*
// parameter. Spaces become %20, not +.
func encodeFilename(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// downloadContentType declares UTF-8 for text types that carry no charset.
func downloadContentType(mimeType string) string {
	if mimeType == "" {
		return "application/octet-stream"
	}
	if strings.HasPrefix(mimeType, "text/") && !strings.Contains(strings.ToLower(mimeType), "charset=") {
		return mimeType + "; charset=UTF-8"
	}
	return mimeType
}
