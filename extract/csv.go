package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/uniparse/uniparse/docstore"
)

// csvStrategy converts the whole CSV document into one markdown table.
// Page and sheet scoping do not apply.
type csvStrategy struct{}

func (csvStrategy) Extract(_ context.Context, doc *docstore.Document, _ Request) (*Result, error) {
	r := csv.NewReader(bytes.NewReader(doc.Content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv parse: %v", ErrExtractionFailed, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty csv document", ErrExtractionFailed)
	}

	headers := rows[0]
	body := rows[1:]

	// A fully blank first row is not a header; synthesize column names and
	// keep every row in the body.
	if allBlank(headers) {
		headers = make([]string, len(rows[0]))
		for i := range headers {
			headers[i] = "Column " + strconv.Itoa(i+1)
		}
		body = rows
	}

	return &Result{Markdown: markdownTable(headers, body)}, nil
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
