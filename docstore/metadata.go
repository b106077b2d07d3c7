package docstore

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/xuri/excelize/v2"
)

// metadata is the kind-specific data derived from document content at Put.
type metadata struct {
	pageCount  int
	sheetNames []string
}

// deriveMetadata opens the content as its classified kind and extracts
// format-specific metadata. Kinds without metadata (CSV, DOCX, HTML,
// UNKNOWN) are not opened here; a corrupt file of those kinds surfaces at
// extraction time instead.
func deriveMetadata(kind Kind, content []byte) (metadata, error) {
	switch kind {
	case KindPDF:
		n, err := pdfPageCount(content)
		if err != nil {
			return metadata{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return metadata{pageCount: n}, nil

	case KindExcel:
		sheets, err := excelSheetNames(content)
		if err != nil {
			return metadata{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return metadata{sheetNames: sheets}, nil

	default:
		return metadata{}, nil
	}
}

// pdfPageCount validates the PDF stream and returns its page count.
func pdfPageCount(content []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// excelSheetNames opens the workbook and lists its sheets in workbook order.
func excelSheetNames(content []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("excelize open: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
