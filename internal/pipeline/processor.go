// Package pipeline runs one résumé through extraction, parsing, normalization and scoring.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/extract"
	"github.com/joseph-ayodele/cv-parser/internal/normalize"
	"github.com/joseph-ayodele/cv-parser/internal/parse"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
	"github.com/joseph-ayodele/cv-parser/internal/score"
	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

// Request is one document to process. Strategy "" selects the configured default.
type Request struct {
	Document     extract.RawDocument
	Strategy     constants.Strategy
	LanguageHint string
}

// Meta describes how a record was produced.
type Meta struct {
	RequestID string                  `json:"req_id"`
	Name      string                  `json:"name,omitempty"`
	Strategy  constants.Strategy      `json:"strategy"`
	Pages     int                     `json:"pages"`
	Warnings  []string                `json:"warnings"`
	Fragments int                     `json:"fragments"`
	Sections  []constants.SectionKind `json:"sections"`
	ElapsedMS int64                   `json:"elapsed_ms"`
}

type Result struct {
	Record schema.Record
	Scores score.Report
	Meta   Meta
}

// MarshalJSON puts the scores in "meta" so "record" stays a plain schema instance.
func (r Result) MarshalJSON() ([]byte, error) {
	type meta struct {
		Meta
		score.Report
	}
	m := meta{Meta: r.Meta, Report: r.Scores}
	if m.Warnings == nil {
		m.Warnings = []string{}
	}
	if m.Sections == nil {
		m.Sections = []constants.SectionKind{}
	}
	return json.Marshal(struct {
		Record schema.Record `json:"record"`
		Meta   meta          `json:"meta"`
	}{r.Record, m})
}

// Processor coordinates text extraction then parsing into the canonical record.
// It keeps no per-request state and is safe for concurrent use.
type Processor struct {
	Logger  *slog.Logger
	Extract *ExtractStage
	Parse   *ParseStage
}

func NewProcessor(logger *slog.Logger, ex *ExtractStage, ps *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extract: ex, Parse: ps}
}

// New wires a Processor from configuration: vocabulary (embedded, optionally extended by
// VOCABULARY_FILE), extractor, parser, normalizer and scorer.
func New(cfg *common.Config, logger *slog.Logger, opts ...extract.Option) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v, err := vocab.Load(cfg.Vocabulary.File)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "load vocabulary", err)
	}
	scorer, err := score.NewScorer(cfg.Score.CoreFields)
	if err != nil {
		return nil, err
	}
	strategy, ok := constants.ParseStrategy(cfg.Extract.DefaultStrategy)
	if !ok {
		return nil, common.NewAppError("CONFIG_ERROR", "unknown EXTRACT_STRATEGY "+cfg.Extract.DefaultStrategy, common.ErrInvalidInput)
	}

	ex := extract.NewExtractor(extract.Config{
		DefaultStrategy: strategy,
		Pdftotext:       cfg.Extract.Pdftotext,
		MaxPages:        cfg.Extract.MaxPages,
		OCR: extract.OCRConfig{
			Endpoint: cfg.OCR.Endpoint,
			APIKey:   cfg.OCR.APIKey,
			Engine:   cfg.OCR.Engine,
			Timeout:  cfg.OCR.Timeout,
		},
	}, logger, opts...)

	return NewProcessor(logger,
		NewExtractStage(ex, logger),
		NewParseStage(parse.NewParser(v, logger), normalize.NewNormalizer(v, logger), scorer, logger),
	), nil
}

// Process returns the record and scores for one document. Only extraction can fail, and
// its error is returned unchanged so extract.KindOf and errors.As keep working.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
		ctx = common.WithRequestID(ctx, reqID)
	}
	logger := common.LoggerFromContext(ctx, p.Logger).With("req_id", reqID)
	ctx = common.WithLogger(ctx, logger)

	meta := Meta{RequestID: reqID, Name: req.Document.Name, Strategy: req.Strategy}

	res, err := p.Extract.Run(ctx, req)
	if err != nil {
		meta.ElapsedMS = time.Since(start).Milliseconds()
		return Result{Record: schema.New(), Meta: meta}, err
	}
	out := p.Parse.Run(ctx, res)

	meta.Strategy = res.StrategyUsed
	meta.Pages = len(res.Pages)
	meta.Warnings = res.Warnings
	meta.Fragments = len(out.Fragments)
	for _, f := range out.Fragments {
		meta.Sections = append(meta.Sections, f.Kind)
	}
	meta.ElapsedMS = time.Since(start).Milliseconds()

	logger.Info("pipeline.done",
		"name", req.Document.Name,
		"strategy", res.StrategyUsed,
		"pages", meta.Pages,
		"fragments", meta.Fragments,
		"core_pct", out.Scores.CorePercentage,
		"global_pct", out.Scores.GlobalPercentage,
		"elapsed_ms", meta.ElapsedMS,
	)
	return Result{Record: out.Record, Scores: out.Scores, Meta: meta}, nil
}
