package extract

import "errors"

// ErrUnsupportedFormat is returned when no strategy exists for a document
// kind. Detected at resolve time, before any extraction work.
var ErrUnsupportedFormat = errors.New("extract: unsupported document format")

// ErrInvalidPage is returned when the requested page is missing or outside
// [1, pageCount] for a PDF document.
var ErrInvalidPage = errors.New("extract: invalid page")

// ErrUnknownSheet is returned when the requested sheet is not in the
// workbook's sheet list.
var ErrUnknownSheet = errors.New("extract: unknown sheet")

// ErrExtractionFailed is returned when no path could produce output for an
// otherwise valid request (corrupt page, empty document, garbage text).
var ErrExtractionFailed = errors.New("extract: extraction failed")
