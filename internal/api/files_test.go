package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

func TestFileRoutes_Upload(t *testing.T) {
	t.Run("into directory", func(t *testing.T) {
		a := newTestAPI(t, kb.Options{})
		docs := a.mkdir(t, "docs", nil)

		var entry kb.FileEntry
		decode(t, a.upload(t, map[string]string{
			"directoryId": strconv.FormatInt(docs.ID, 10),
			"description": "weekly",
		}, "notes.txt", "hello"), http.StatusCreated, &entry)

		if entry.OriginalName != "notes.txt" || entry.DirectoryID != docs.ID || entry.Size != 5 || entry.Description != "weekly" {
			t.Errorf("entry = %+v", entry)
		}
		if entry.Location != "" {
			t.Errorf("location leaked into JSON: %q", entry.Location)
		}
	})

	t.Run("root by default and client path stripped", func(t *testing.T) {
		a := newTestAPI(t, kb.Options{})

		var entry kb.FileEntry
		decode(t, a.upload(t, nil, `C:\Users\me\report.pdf`, "%PDF"), http.StatusCreated, &entry)
		if entry.DirectoryID != a.env.Root.ID || entry.OriginalName != "report.pdf" {
			t.Errorf("entry = %+v", entry)
		}
	})

	t.Run("errors", func(t *testing.T) {
		a := newTestAPI(t, kb.Options{MaxFileSize: 4})

		tests := []struct {
			name       string
			fields     map[string]string
			filename   string
			content    string
			wantStatus int
			wantCode   string
		}{
			{"no file part", map[string]string{"description": "x"}, "", "", http.StatusBadRequest, kb.CodeEmptyFile},
			{"empty file", nil, "empty.txt", "", http.StatusBadRequest, kb.CodeEmptyFile},
			{"too large", nil, "big.bin", "12345", http.StatusRequestEntityTooLarge, kb.CodeFileTooLarge},
			{"unknown directory", map[string]string{"directoryId": "999"}, "a.txt", "x", http.StatusNotFound, kb.CodeDirectoryNotFound},
			{"bad directory id", map[string]string{"directoryId": "docs"}, "a.txt", "x", http.StatusBadRequest, kb.CodeValidation},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := decode(t, a.upload(t, tt.fields, tt.filename, tt.content), tt.wantStatus, nil)
				if env.ErrorCode != tt.wantCode {
					t.Errorf("errorCode = %q, want %q (message %q)", env.ErrorCode, tt.wantCode, env.Message)
				}
			})
		}
	})

	t.Run("body far above the limit", func(t *testing.T) {
		a := newTestAPI(t, kb.Options{MaxFileSize: 4})

		env := decode(t, a.upload(t, nil, "huge.bin", strings.Repeat("x", multipartOverhead+1024)), http.StatusRequestEntityTooLarge, nil)
		if env.ErrorCode != kb.CodeFileTooLarge {
			t.Errorf("errorCode = %q, want %q", env.ErrorCode, kb.CodeFileTooLarge)
		}
	})
}

func TestFileRoutes_Download(t *testing.T) {
	a := newTestAPI(t, kb.Options{})

	var entry kb.FileEntry
	decode(t, a.upload(t, nil, "周报 v1.txt", "hello world"), http.StatusCreated, &entry)

	w := a.do(t, http.MethodGet, fmt.Sprintf("/api/files/download/%d", entry.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "hello world" {
		t.Errorf("body = %q", got)
	}

	h := w.Header()
	if got, want := h.Get("Content-Disposition"), "attachment; filename*=UTF-8''%E5%91%A8%E6%8A%A5%20v1.txt"; got != want {
		t.Errorf("Content-Disposition = %q, want %q", got, want)
	}
	if got := h.Get("Content-Type"); !strings.HasPrefix(got, "text/plain") || !strings.Contains(strings.ToLower(got), "charset=utf-8") {
		t.Errorf("Content-Type = %q, want text/plain with a UTF-8 charset", got)
	}
	if got := h.Get("Content-Length"); got != "11" {
		t.Errorf("Content-Length = %q, want 11", got)
	}
	if h.Get("Cache-Control") != "no-cache" || h.Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("cache headers = %q, %q", h.Get("Cache-Control"), h.Get("X-Content-Type-Options"))
	}

	var got kb.FileEntry
	decode(t, a.do(t, http.MethodGet, fmt.Sprintf("/api/files/%d", entry.ID), nil), http.StatusOK, &got)
	if got.DownloadCount != 1 {
		t.Errorf("DownloadCount = %d, want 1", got.DownloadCount)
	}

	t.Run("missing blob", func(t *testing.T) {
		stored, err := a.env.Service.GetFile(context.Background(), entry.ID)
		if err != nil {
			t.Fatalf("GetFile() error = %v", err)
		}
		if err := a.env.Store.Delete(context.Background(), stored.Location); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		env := decode(t, a.do(t, http.MethodGet, fmt.Sprintf("/api/files/download/%d", entry.ID), nil), http.StatusInternalServerError, nil)
		if env.ErrorCode != kb.CodePhysicalFileMissing {
			t.Errorf("errorCode = %q, want %q", env.ErrorCode, kb.CodePhysicalFileMissing)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		env := decode(t, a.do(t, http.MethodGet, "/api/files/download/999", nil), http.StatusNotFound, nil)
		if env.ErrorCode != kb.CodeFileNotFound {
			t.Errorf("errorCode = %q, want %q", env.ErrorCode, kb.CodeFileNotFound)
		}
	})
}

func TestFileRoutes_Metadata(t *testing.T) {
	a := newTestAPI(t, kb.Options{})
	docs := a.mkdir(t, "docs", nil)

	var rootFile, docFile kb.FileEntry
	decode(t, a.upload(t, nil, "root.txt", "r"), http.StatusCreated, &rootFile)
	decode(t, a.upload(t, map[string]string{"directoryId": strconv.FormatInt(docs.ID, 10)}, "doc.txt", "d"), http.StatusCreated, &docFile)

	t.Run("list by directory", func(t *testing.T) {
		var files []kb.FileEntry
		decode(t, a.do(t, http.MethodGet, fmt.Sprintf("/api/files/directory/%d", docs.ID), nil), http.StatusOK, &files)
		if len(files) != 1 || files[0].ID != docFile.ID {
			t.Errorf("files = %+v", files)
		}
	})

	t.Run("page all and by directory", func(t *testing.T) {
		var all kb.Page[kb.FileEntry]
		decode(t, a.do(t, http.MethodGet, "/api/files/page", nil), http.StatusOK, &all)
		if all.Total != 2 || all.Size != kb.DefaultPageSize || all.Current != 1 {
			t.Errorf("all = %+v", all)
		}

		var root kb.Page[kb.FileEntry]
		decode(t, a.do(t, http.MethodGet, "/api/files/page?directoryId=0", nil), http.StatusOK, &root)
		if root.Total != 1 || root.Records[0].ID != rootFile.ID {
			t.Errorf("root page = %+v", root)
		}
	})

	t.Run("update", func(t *testing.T) {
		var got kb.FileEntry
		decode(t, a.do(t, http.MethodPut, fmt.Sprintf("/api/files/%d", docFile.ID), map[string]any{
			"originalName": "renamed.txt",
			"description":  "edited",
		}), http.StatusOK, &got)
		if got.OriginalName != "renamed.txt" || got.Description != "edited" {
			t.Errorf("updated = %+v", got)
		}
	})

	t.Run("increment download count", func(t *testing.T) {
		decode(t, a.do(t, http.MethodPut, fmt.Sprintf("/api/files/%d/download", docFile.ID), nil), http.StatusOK, nil)

		var got kb.FileEntry
		decode(t, a.do(t, http.MethodGet, fmt.Sprintf("/api/files/%d", docFile.ID), nil), http.StatusOK, &got)
		if got.DownloadCount != 1 {
			t.Errorf("DownloadCount = %d, want 1", got.DownloadCount)
		}
	})

	t.Run("statistics", func(t *testing.T) {
		var stats kb.Statistics
		decode(t, a.do(t, http.MethodGet, "/api/statistics", nil), http.StatusOK, &stats)
		if stats.TotalDirectories != 2 || stats.TotalFiles != 2 || stats.TotalFileSize != 2 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("delete", func(t *testing.T) {
		decode(t, a.do(t, http.MethodDelete, fmt.Sprintf("/api/files/%d", docFile.ID), nil), http.StatusOK, nil)

		env := decode(t, a.do(t, http.MethodDelete, fmt.Sprintf("/api/files/%d", docFile.ID), nil), http.StatusNotFound, nil)
		if env.ErrorCode != kb.CodeFileNotFound {
			t.Errorf("errorCode = %q, want %q", env.ErrorCode, kb.CodeFileNotFound)
		}
	})
}
