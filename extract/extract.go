// Package extract converts stored documents into markdown text.
//
// Dispatch is by document kind: a Registry maps each kind to a Strategy
// (PDF page-scoped, Excel sheet-scoped, CSV/DOCX/HTML whole-document).
// The PDF strategy tries a rich layout-aware converter first and degrades
// per call to a baseline pdfcpu text extraction. The Pipeline is the
// external entry point: it validates a request against stored metadata,
// resolves the strategy and returns the markdown.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/uniparse/uniparse/docstore"
)

// Request scopes an extraction. Page applies to PDF documents only;
// Sheet applies to Excel documents only. Both are ignored elsewhere.
type Request struct {
	Page  int    // 1-based, 0 = unset
	Sheet string // "" = first sheet in workbook order

	// Refine adjusts the markdown refiner for this request only. Ignored
	// when no refiner is installed, and for PDF documents (which are
	// never refined).
	Refine *RefineOverrides
}

// RefineOverrides carries per-request refiner settings. Zero-valued
// fields keep the configured value; whether refinement happens at all is
// decided by configuration, never per request.
type RefineOverrides struct {
	BaseURL         string  `json:"base_url"`
	APIKey          string  `json:"api_key"`
	Model           string  `json:"model"`
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// Result is the outcome of one extraction.
type Result struct {
	Markdown string
	// Engine reports which PDF path produced the output ("rich" or
	// "baseline"). Empty for non-PDF kinds. A missing rich engine is an
	// environment condition, not an error, so it is surfaced here only.
	Engine string
}

// Strategy turns document bytes, optionally scoped by the request, into
// markdown. Strategies never mutate the source bytes.
type Strategy interface {
	Extract(ctx context.Context, doc *docstore.Document, req Request) (*Result, error)
}

// Config configures the extraction pipeline.
type Config struct {
	// Rich configures the external layout-aware PDF converter. A zero
	// value disables the rich path; every PDF extraction then uses the
	// baseline extractor.
	Rich RichConfig

	// MaxInputChars truncates text handed to the markdown refiner
	// (default: 12000).
	MaxInputChars int

	// Logger for debug/warn messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 12000
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Registry maps each supported document kind to its extraction strategy.
// The mapping is fixed at construction; Resolve is a pure lookup.
type Registry struct {
	strategies map[docstore.Kind]Strategy
}

// NewRegistry builds the strategy table for all supported kinds.
func NewRegistry(cfg Config) *Registry {
	cfg.defaults()
	rich := NewRichClient(cfg.Rich)
	return &Registry{
		strategies: map[docstore.Kind]Strategy{
			docstore.KindPDF:   &pdfStrategy{rich: rich, logger: cfg.Logger},
			docstore.KindExcel: &excelStrategy{},
			docstore.KindCSV:   &csvStrategy{},
			docstore.KindDocx:  &docxStrategy{},
			docstore.KindHTML:  newHTMLStrategy(),
		},
	}
}

// Resolve returns the strategy for kind, or ErrUnsupportedFormat.
func (r *Registry) Resolve(kind docstore.Kind) (Strategy, error) {
	s, ok := r.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}
	return s, nil
}

// Refiner post-processes extracted text into cleaner markdown. Optional;
// used for non-PDF kinds only (the PDF paths already emit markdown).
type Refiner interface {
	Refine(ctx context.Context, text, filename, contentType string) (string, error)
}

// OverridableRefiner is implemented by refiners that can derive a
// per-request variant from overrides. Refiners without this capability
// ignore request overrides.
type OverridableRefiner interface {
	Refiner
	WithOverrides(ov RefineOverrides) Refiner
}

// Pipeline is the request orchestrator: store lookup, strategy resolution,
// request validation and extraction, in that order.
type Pipeline struct {
	store   docstore.Store
	reg     *Registry
	refiner Refiner
	maxIn   int
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline over the given store.
func NewPipeline(store docstore.Store, cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		store:  store,
		reg:    NewRegistry(cfg),
		maxIn:  cfg.MaxInputChars,
		logger: cfg.Logger,
	}
}

// SetRefiner installs an optional markdown refiner for non-PDF output.
func (p *Pipeline) SetRefiner(r Refiner) {
	p.refiner = r
}

// Parse extracts markdown for one document. Errors are terminal for the
// request; the only internal recovery is the PDF rich → baseline
// substitution inside the strategy.
func (p *Pipeline) Parse(ctx context.Context, id string, req Request) (*Result, error) {
	doc, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	strategy, err := p.reg.Resolve(doc.Kind)
	if err != nil {
		return nil, err
	}

	res, err := strategy.Extract(ctx, doc, req)
	if err != nil {
		return nil, err
	}

	if p.refiner != nil && doc.Kind != docstore.KindPDF {
		res, err = p.refine(ctx, doc, res, req.Refine)
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// refine sends non-PDF output through the configured refiner. A refiner is
// only installed when explicitly enabled, so its failure is an extraction
// failure rather than a silent downgrade.
func (p *Pipeline) refine(ctx context.Context, doc *docstore.Document, res *Result, ov *RefineOverrides) (*Result, error) {
	refiner := p.refiner
	if ov != nil {
		if o, ok := refiner.(OverridableRefiner); ok {
			refiner = o.WithOverrides(*ov)
		}
	}

	text := res.Markdown
	if len(text) > p.maxIn {
		cut := p.maxIn
		// Back up to a rune boundary so the cut never splits a UTF-8
		// sequence.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	refined, err := refiner.Refine(ctx, text, doc.Filename, doc.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: refine: %v", ErrExtractionFailed, err)
	}

	p.logger.Debug("refined extraction output", "id", doc.ID, "kind", doc.Kind)
	return &Result{Markdown: refined, Engine: res.Engine}, nil
}
