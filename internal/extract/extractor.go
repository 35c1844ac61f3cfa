package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/common"
)

type Config struct {
	DefaultStrategy constants.Strategy // empty -> local
	Pdftotext       string             // binary name or absolute path; if empty -> "pdftotext"
	MaxPages        int                // 0 = no limit
	OCR             OCRConfig
}

// Extractor turns PDF bytes into text using one of the registered strategies.
// It holds no per-request state and is safe for concurrent use.
type Extractor struct {
	cfg     Config
	sources map[constants.Strategy]PageSource
	runner  Runner
	client  *http.Client
	logger  *slog.Logger
}

type Option func(*Extractor)

// WithSource registers (or replaces) the source for src.Name().
func WithSource(src PageSource) Option {
	return func(e *Extractor) { e.sources[src.Name()] = src }
}

// WithRunner swaps the command runner used by the default local source.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithHTTPClient sets the client used by the default external source.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = constants.StrategyLocal
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	e := &Extractor{
		cfg:     cfg,
		sources: make(map[constants.Strategy]PageSource, 2),
		runner:  execRunner{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := e.sources[constants.StrategyLocal]; !ok {
		e.sources[constants.StrategyLocal] = NewPdftotextSource(cfg.Pdftotext, e.runner, logger)
	}
	if _, ok := e.sources[constants.StrategyExternal]; !ok {
		e.sources[constants.StrategyExternal] = NewOCRSpaceSource(cfg.OCR, e.client, logger)
	}
	return e
}

// Extract returns the text of doc. strategy "" means the configured default; a local request
// whose backend is missing falls back to the external source and says so in Warnings.
func (e *Extractor) Extract(ctx context.Context, doc RawDocument, strategy constants.Strategy, languageHint string) (ExtractionResult, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, e.logger)

	if strategy == "" {
		strategy = e.cfg.DefaultStrategy
	}
	src, ok := e.sources[strategy]
	if !ok {
		return ExtractionResult{}, newError(KindUnsupportedDocument, "extract",
			fmt.Sprintf("unknown extraction strategy %q", strategy), nil)
	}
	if err := checkMedia(doc); err != nil {
		logger.Warn("extract.rejected", "name", doc.Name, "media_type", doc.MediaType, "error", err)
		return ExtractionResult{}, err
	}
	logger.Debug("extract.start", "name", doc.Name, "strategy", strategy, "bytes", len(doc.Data), "language_hint", languageHint)

	var warnings []string
	info, inspectErr := InspectPDF(doc.Data)
	if inspectErr != nil {
		logger.Warn("extract.inspect_failed", "name", doc.Name, "error", inspectErr)
		warnings = append(warnings, "pdf structure check failed: "+inspectErr.Error())
	}

	pages, err := e.run(ctx, src, doc, languageHint)
	if errors.Is(err, ErrBackendUnavailable) && strategy == constants.StrategyLocal {
		fallback := e.sources[constants.StrategyExternal]
		logger.Warn("extract.local.unavailable", "error", err, "fallback", constants.StrategyExternal)
		warnings = append(warnings, fmt.Sprintf("local text extraction unavailable (%v); used external OCR", err))
		strategy = constants.StrategyExternal
		pages, err = e.run(ctx, fallback, doc, languageHint)
	}
	if err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			err = newError(KindExternalServiceUnavailable, string(strategy), "no extraction backend available", err)
		}
		logger.Error("extract.failed", "strategy", strategy, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return ExtractionResult{}, err
	}

	for i := range pages {
		pages[i] = CleanText(pages[i])
	}
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		warnings = append(warnings, fmt.Sprintf("document truncated to %d of %d pages", e.cfg.MaxPages, len(pages)))
		pages = pages[:e.cfg.MaxPages]
	}

	text := joinPages(pages)
	if strings.TrimSpace(text) == "" {
		err := e.emptyError(strategy, info, inspectErr == nil)
		logger.Warn("extract.no_text", "strategy", strategy, "pages", len(pages), "elapsed_ms", time.Since(start).Milliseconds())
		return ExtractionResult{}, err
	}

	logger.Info(fmt.Sprintf("extract.%s.ok", strategy),
		"name", doc.Name,
		"pages", len(pages),
		"chars", len(text),
		"warnings", len(warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ExtractionResult{
		Text:         text,
		Pages:        pages,
		StrategyUsed: strategy,
		Warnings:     warnings,
	}, nil
}

func (e *Extractor) run(ctx context.Context, src PageSource, doc RawDocument, hint string) ([]string, error) {
	if err := src.Available(); err != nil {
		return nil, err
	}
	return src.Pages(ctx, doc.Data, hint)
}

func (e *Extractor) emptyError(strategy constants.Strategy, info PDFInfo, inspected bool) error {
	if strategy == constants.StrategyExternal {
		return newError(KindEmptyResult, "external", "OCR returned no text", nil)
	}
	msg := "no extractable text layer"
	if inspected {
		msg = fmt.Sprintf("%s (%d pages", msg, info.Pages)
		if info.ImageStreams > 0 {
			msg += ", image streams present; try the external strategy"
		}
		msg += ")"
	}
	return newError(KindUnsupportedDocument, "local", msg, nil)
}

func checkMedia(doc RawDocument) error {
	if mt := strings.TrimSpace(doc.MediaType); mt != "" {
		parsed, _, err := mime.ParseMediaType(mt)
		if err != nil {
			parsed = strings.ToLower(mt)
		}
		if parsed != constants.MediaTypePDF && parsed != "application/x-pdf" {
			return newError(KindUnsupportedDocument, "extract", fmt.Sprintf("media type %q is not a PDF", mt), nil)
		}
	}
	if len(doc.Data) == 0 {
		return newError(KindUnsupportedDocument, "extract", "empty document", nil)
	}
	if !looksLikePDF(doc.Data) {
		return newError(KindUnsupportedDocument, "extract", "missing %PDF- header", nil)
	}
	return nil
}

// joinPages keeps page boundaries as a blank line and skips pages with no text.
func joinPages(pages []string) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p = strings.Trim(p, "\n"); strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
