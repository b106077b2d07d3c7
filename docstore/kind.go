package docstore

import (
	"path/filepath"
	"strings"
)

// Kind identifies a document type.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindExcel   Kind = "excel"
	KindCSV     Kind = "csv"
	KindDocx    Kind = "docx"
	KindHTML    Kind = "html"
	KindUnknown Kind = "unknown"
)

// Classify maps a filename to a document Kind by its extension,
// case-insensitively. Classification is extension-only: content is never
// sniffed, so a mislabelled file surfaces later as an unreadable document
// rather than being silently reclassified. Known limitation, kept
// deliberately.
func Classify(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".xlsx", ".xlsm":
		return KindExcel
	case ".csv":
		return KindCSV
	case ".docx":
		return KindDocx
	case ".html", ".htm":
		return KindHTML
	default:
		return KindUnknown
	}
}

// DefaultContentType returns the MIME type to serve for a Kind when the
// uploader did not provide one.
func DefaultContentType(k Kind) string {
	switch k {
	case KindPDF:
		return "application/pdf"
	case KindExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case KindCSV:
		return "text/csv"
	case KindDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case KindHTML:
		return "text/html"
	default:
		return "application/octet-stream"
	}
}
