package ingest

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileType is an accepted upload format.
type FileType struct {
	Extension string   `json:"extension"`
	MimeTypes []string `json:"mime_types"`
	// sniffed lists MIME types the content detector may report for the
	// format, including generic container types.
	sniffed []string
}

var (
	FileTypeCSV = FileType{
		Extension: ".csv",
		MimeTypes: []string{"text/csv", "application/csv"},
		sniffed:   []string{"text/csv", "text/plain"},
	}
	FileTypeXLS = FileType{
		Extension: ".xls",
		MimeTypes: []string{"application/vnd.ms-excel"},
		sniffed:   []string{"application/vnd.ms-excel", "application/x-ole-storage"},
	}
	FileTypeXLSX = FileType{
		Extension: ".xlsx",
		MimeTypes: []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		sniffed:   []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	}
)

// SupportedFileTypes lists every accepted upload format.
var SupportedFileTypes = []FileType{FileTypeCSV, FileTypeXLS, FileTypeXLSX}

// fileTypeFor resolves a file name's extension, case-insensitively.
func fileTypeFor(filename string) (FileType, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, ft := range SupportedFileTypes {
		if ft.Extension == ext {
			return ft, true
		}
	}
	return FileType{}, false
}

// matches reports whether the detected MIME type, or any of its parents, is
// plausible for the file type.
func (ft FileType) matches(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		mt := m.String()
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		if slices.Contains(ft.sniffed, mt) || slices.Contains(ft.MimeTypes, mt) {
			return true
		}
	}
	return false
}
