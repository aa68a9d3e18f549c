package kb

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"
)

// File type categories derived from the extension.
const (
	FileTypeDocument     = "document"
	FileTypeSpreadsheet  = "spreadsheet"
	FileTypePresentation = "presentation"
	FileTypeImage        = "image"
	FileTypeAudio        = "audio"
	FileTypeVideo        = "video"
	FileTypeArchive      = "archive"
	FileTypeProgram      = "program"
	FileTypeOther        = "other"
)

var fileTypesByExtension = buildFileTypes(map[string][]string{
	FileTypeDocument:     {"doc", "docx", "pdf", "txt", "rtf", "odt"},
	FileTypeSpreadsheet:  {"xls", "xlsx", "csv", "ods"},
	FileTypePresentation: {"ppt", "pptx", "odp"},
	FileTypeImage:        {"jpg", "jpeg", "png", "gif", "bmp", "svg", "ico", "webp"},
	FileTypeAudio:        {"mp3", "wav", "flac", "aac", "ogg", "wma"},
	FileTypeVideo:        {"mp4", "avi", "mov", "wmv", "flv", "mkv", "webm"},
	FileTypeArchive:      {"zip", "rar", "7z", "tar", "gz", "bz2"},
	FileTypeProgram:      {"exe", "msi", "dmg", "deb", "rpm", "apk"},
})

func buildFileTypes(groups map[string][]string) map[string]string {
	m := make(map[string]string)
	for fileType, exts := range groups {
		for _, ext := range exts {
			m[ext] = fileType
		}
	}
	return m
}

// FileExtension returns the lower-cased extension of name without the dot.
// A leading or trailing dot does not start an extension.
func FileExtension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// FileTypeOf maps an extension to its category.
func FileTypeOf(ext string) string {
	if t, ok := fileTypesByExtension[strings.ToLower(ext)]; ok {
		return t
	}
	return FileTypeOther
}

// StoredName builds the physical name of a new blob:
// <yyyyMMddHHmmss>_<8 chars of id>[.<ext>].
func StoredName(now time.Time, id, originalName string) string {
	suffix := strings.ReplaceAll(id, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	name := now.Format("20060102150405") + "_" + suffix
	if ext := FileExtension(originalName); ext != "" {
		name += "." + ext
	}
	return name
}

// DetectMimeType resolves a MIME type from the extension, falling back to
// sniffing head.
func DetectMimeType(name string, head []byte) string {
	if ext := FileExtension(name); ext != "" {
		if t := mime.TypeByExtension("." + ext); t != "" {
			return t
		}
	}
	return http.DetectContentType(head)
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count with two decimals in 1024-based units.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[unit])
}
