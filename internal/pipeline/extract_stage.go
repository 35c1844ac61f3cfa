package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/extract"
)

// TextExtractor is the extraction boundary; *extract.Extractor implements it.
type TextExtractor interface {
	Extract(ctx context.Context, doc extract.RawDocument, strategy constants.Strategy, languageHint string) (extract.ExtractionResult, error)
}

type ExtractStage struct {
	Extractor TextExtractor
	Logger    *slog.Logger
}

func NewExtractStage(tx TextExtractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{Extractor: tx, Logger: logger}
}

// Run returns the document text. Errors come back exactly as the extractor produced them.
func (s *ExtractStage) Run(ctx context.Context, req Request) (extract.ExtractionResult, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, s.Logger)

	res, err := s.Extractor.Extract(ctx, req.Document, req.Strategy, req.LanguageHint)
	if err != nil {
		logger.Error("pipeline.extract.failed",
			"name", req.Document.Name,
			"kind", extract.KindOf(err),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.ExtractionResult{}, err
	}
	logger.Debug("pipeline.extract.ok",
		"strategy", res.StrategyUsed,
		"pages", len(res.Pages),
		"warnings", len(res.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
