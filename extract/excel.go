package extract

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/uniparse/uniparse/docstore"
)

// excelStrategy renders exactly one worksheet as a markdown table. With no
// sheet requested, the first sheet in workbook order is used; a requested
// sheet must be in the document's sheet list.
type excelStrategy struct{}

func (excelStrategy) Extract(_ context.Context, doc *docstore.Document, req Request) (*Result, error) {
	sheet := req.Sheet
	if sheet == "" {
		if len(doc.SheetNames) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrExtractionFailed)
		}
		sheet = doc.SheetNames[0]
	} else if !slices.Contains(doc.SheetNames, sheet) {
		return nil, fmt.Errorf("%w: %q not in %v", ErrUnknownSheet, sheet, doc.SheetNames)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: excelize open: %v", ErrExtractionFailed, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrExtractionFailed, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrExtractionFailed, sheet)
	}

	var sb strings.Builder
	sb.WriteString("# Sheet: ")
	sb.WriteString(sheet)
	sb.WriteString("\n\n")
	sb.WriteString(markdownTable(rows[0], rows[1:]))
	return &Result{Markdown: sb.String()}, nil
}
