package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/uniparse/uniparse/docstore"
)

// Engine status strings reported in Result.Engine for PDF extractions.
const (
	EngineRich     = "rich"
	EngineBaseline = "baseline"
)

// pdfStrategy extracts a single PDF page as markdown. The rich converter
// is tried first when available; any rich failure degrades this call to
// the baseline extractor. The choice is made per call and never cached.
type pdfStrategy struct {
	rich   *RichClient
	logger *slog.Logger
}

func (s *pdfStrategy) Extract(ctx context.Context, doc *docstore.Document, req Request) (*Result, error) {
	if req.Page < 1 || req.Page > doc.PageCount {
		return nil, fmt.Errorf("%w: page %d outside [1, %d]", ErrInvalidPage, req.Page, doc.PageCount)
	}

	if s.rich.Available() {
		md, err := s.rich.ConvertPage(ctx, doc.Content, req.Page)
		switch {
		case err != nil:
			s.logger.Warn("rich converter failed, using baseline",
				"id", doc.ID, "page", req.Page, "error", err)
		case strings.TrimSpace(md) == "":
			s.logger.Warn("rich converter returned empty output, using baseline",
				"id", doc.ID, "page", req.Page)
		default:
			return &Result{Markdown: md, Engine: EngineRich}, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	md, err := baselinePageMarkdown(doc.Content, req.Page)
	if err != nil {
		return nil, err
	}
	return &Result{Markdown: md, Engine: EngineBaseline}, nil
}

// baselinePageMarkdown pulls raw text from one page via pdfcpu content
// streams and normalizes it to markdown: a page heading plus paragraphs.
// No table or heading reconstruction is attempted.
func baselinePageMarkdown(content []byte, page int) (string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return "", fmt.Errorf("%w: pdfcpu read: %v", ErrExtractionFailed, err)
	}

	r, err := pdfcpu.ExtractPageContent(pdfCtx, page)
	if err != nil {
		return "", fmt.Errorf("%w: page %d content: %v", ErrExtractionFailed, page, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: page %d read: %v", ErrExtractionFailed, page, err)
	}

	text := streamText(data)
	if text == "" {
		return "", fmt.Errorf("%w: no text on page %d", ErrExtractionFailed, page)
	}
	if ratio := printableRatio(text); ratio < 0.85 {
		return "", fmt.Errorf("%w: page %d text unreadable (printable ratio %.2f)", ErrExtractionFailed, page, ratio)
	}
	// Long runs of non-word tokens mean the page needs OCR, not markdown.
	if len(strings.Fields(text)) >= 20 {
		if ratio := wordlikeRatio(text); ratio < 0.2 {
			return "", fmt.Errorf("%w: page %d text unreadable (wordlike ratio %.2f)", ErrExtractionFailed, page, ratio)
		}
	}

	var sb strings.Builder
	sb.WriteString("## Page ")
	sb.WriteString(strconv.Itoa(page))
	for _, para := range splitParagraphs(text) {
		sb.WriteString("\n\n")
		sb.WriteString(para)
	}
	return sb.String(), nil
}

// splitParagraphs turns each non-empty line into its own paragraph. The
// stream decoder emits one line per text-positioning break, so lines are
// the only paragraph boundary the baseline extractor has.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paras []string
	for _, p := range strings.Split(text, "\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) == 0 && text != "" {
		paras = []string{strings.TrimSpace(text)}
	}
	return paras
}
