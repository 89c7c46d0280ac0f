// Package fileparse turns raw upload bytes into rows or text. Tabular files
// (CSV/XLSX/XLS) become ordered columns plus row maps; documents (PDF/DOCX/
// DOC) become extracted text via docconv, with pdfcpu used to validate PDFs.
package fileparse

import (
	"path/filepath"
	"strings"
)

// Kind classifies an upload by extension.
type Kind string

const (
	KindTabular  Kind = "tabular"
	KindDocument Kind = "document"
	KindUnknown  Kind = "unknown"
)

var allowedExtensions = map[string]Kind{
	"csv":  KindTabular,
	"xlsx": KindTabular,
	"xls":  KindTabular,
	"pdf":  KindDocument,
	"docx": KindDocument,
	"doc":  KindDocument,
}

// Ext returns the lower-cased extension without the dot.
func Ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// DetectKind classifies a filename; unsupported extensions map to KindUnknown.
func DetectKind(filename string) Kind {
	if k, ok := allowedExtensions[Ext(filename)]; ok {
		return k
	}
	return KindUnknown
}

// Supported reports whether the file extension is accepted for upload.
func Supported(filename string) bool {
	return DetectKind(filename) != KindUnknown
}
