package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/uniparse/uniparse/docstore"
)

// docxStrategy converts a .docx document into markdown by streaming
// word/document.xml out of the ZIP archive. Heading paragraph styles
// become markdown headings; everything else becomes paragraphs.
type docxStrategy struct{}

func (docxStrategy) Extract(_ context.Context, doc *docstore.Document, _ Request) (*Result, error) {
	r, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: open docx archive: %v", ErrExtractionFailed, err)
	}

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("%w: word/document.xml not found in archive", ErrExtractionFailed)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open document.xml: %v", ErrExtractionFailed, err)
	}
	defer rc.Close()

	md, err := docxMarkdown(xml.NewDecoder(rc))
	if err != nil {
		return nil, err
	}
	return &Result{Markdown: md}, nil
}

// docxMarkdown walks the WordprocessingML token stream and emits markdown
// blocks separated by blank lines.
func docxMarkdown(decoder *xml.Decoder) (string, error) {
	var blocks []string
	var currentText strings.Builder
	var inParagraph bool
	var paragraphStyle string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "p":
				inParagraph = true
				currentText.Reset()
				paragraphStyle = ""
			case t.Name.Local == "pStyle" && inParagraph:
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						paragraphStyle = attr.Value
					}
				}
			}

		case xml.CharData:
			if inParagraph {
				currentText.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				text := strings.TrimSpace(currentText.String())
				if text == "" {
					continue
				}
				if level := docxHeadingLevel(paragraphStyle); level > 0 {
					blocks = append(blocks, strings.Repeat("#", level)+" "+text)
				} else {
					blocks = append(blocks, text)
				}
			}
		}
	}

	if len(blocks) == 0 {
		return "", fmt.Errorf("%w: no text in docx document", ErrExtractionFailed)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// docxHeadingLevel extracts the heading level from a paragraph style name.
// e.g. "Heading1" → 1, "Heading2" → 2, "Title" → 1.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)

	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}

	// "Heading1", "heading1", "Titre1", etc.
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}
