package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/uniparse/uniparse/docstore"
)

// htmlStrategy flattens an HTML document to markdown: sanitize first,
// then convert structure (headings, lists, tables) with the commonmark
// converter. If conversion yields nothing, fall back to collecting the
// visible text.
type htmlStrategy struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

func newHTMLStrategy() *htmlStrategy {
	return &htmlStrategy{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (s *htmlStrategy) Extract(_ context.Context, doc *docstore.Document, _ Request) (*Result, error) {
	sanitized := s.policy.Sanitize(string(doc.Content))

	md, err := s.conv.ConvertString(sanitized)
	if err == nil && strings.TrimSpace(md) != "" {
		return &Result{Markdown: strings.TrimSpace(md)}, nil
	}

	// Converter produced nothing usable; collect the visible text instead.
	text, terr := visibleHTMLText(doc.Content)
	if terr != nil {
		return nil, fmt.Errorf("%w: html parse: %v", ErrExtractionFailed, terr)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: no text in html document", ErrExtractionFailed)
	}
	return &Result{Markdown: text}, nil
}

// visibleHTMLText extracts all visible text from an HTML byte stream,
// skipping script, style and noscript subtrees.
func visibleHTMLText(content []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return sb.String(), nil
}
