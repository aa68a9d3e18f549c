package kb

import (
	"strings"
	"testing"
	"time"
)

func TestFileExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.pdf", "pdf"},
		{"Photo.JPG", "jpg"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
		{".bashrc", ""},
		{"trailing.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileExtension(tt.name); got != tt.want {
				t.Errorf("FileExtension(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestFileTypeOf(t *testing.T) {
	tests := map[string]string{
		"pdf":  FileTypeDocument,
		"XLSX": FileTypeSpreadsheet,
		"pptx": FileTypePresentation,
		"webp": FileTypeImage,
		"flac": FileTypeAudio,
		"mkv":  FileTypeVideo,
		"7z":   FileTypeArchive,
		"apk":  FileTypeProgram,
		"go":   FileTypeOther,
		"":     FileTypeOther,
	}

	for ext, want := range tests {
		if got := FileTypeOf(ext); got != want {
			t.Errorf("FileTypeOf(%q) = %q, want %q", ext, got, want)
		}
	}
}

func TestStoredName(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name     string
		id       string
		original string
		want     string
	}{
		{"with extension", "3f2a9c1e-8b7d-4c2a-9e1f-0a1b2c3d4e5f", "Report.PDF", "20260314092653_3f2a9c1e.pdf"},
		{"without extension", "3f2a9c1e-8b7d-4c2a-9e1f-0a1b2c3d4e5f", "Makefile", "20260314092653_3f2a9c1e"},
		{"hyphen inside prefix", "3f2a-9c1e8b7d", "a.txt", "20260314092653_3f2a9c1e.txt"},
		{"short id", "abc", "a.txt", "20260314092653_abc.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StoredName(now, tt.id, tt.original); got != tt.want {
				t.Errorf("StoredName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectMimeType(t *testing.T) {
	if got := DetectMimeType("doc.pdf", nil); got != "application/pdf" {
		t.Errorf("DetectMimeType(pdf) = %q, want application/pdf", got)
	}
	if got := DetectMimeType("noext", []byte("\x89PNG\r\n\x1a\n")); got != "image/png" {
		t.Errorf("DetectMimeType(png bytes) = %q, want image/png", got)
	}
	if got := DetectMimeType("unknown.zzzz", []byte{0, 1, 2, 3}); got != "application/octet-stream" {
		t.Errorf("DetectMimeType(binary) = %q, want application/octet-stream", got)
	}
	if got := DetectMimeType("notes", []byte("just text")); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("DetectMimeType(text) = %q, want text/plain", got)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{-5, "0 B"},
		{512, "512.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 << 20, "5.00 MB"},
		{3 << 30, "3.00 GB"},
		{2 << 40, "2.00 TB"},
		{4096 << 40, "4096.00 TB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.bytes); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
