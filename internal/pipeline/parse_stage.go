package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/extract"
	"github.com/joseph-ayodele/cv-parser/internal/normalize"
	"github.com/joseph-ayodele/cv-parser/internal/parse"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
	"github.com/joseph-ayodele/cv-parser/internal/score"
)

// ParseStage turns extracted text into a scored record. It cannot fail: unreadable
// input yields a sparse record with low scores.
type ParseStage struct {
	Parser     *parse.Parser
	Normalizer *normalize.Normalizer
	Scorer     *score.Scorer
	Logger     *slog.Logger
}

func NewParseStage(p *parse.Parser, n *normalize.Normalizer, s *score.Scorer, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	if s == nil {
		s = score.Default()
	}
	return &ParseStage{Parser: p, Normalizer: n, Scorer: s, Logger: logger}
}

// Parsed is the output of ParseStage.
type Parsed struct {
	Record    schema.Record
	Scores    score.Report
	Fragments []parse.Fragment
}

func (s *ParseStage) Run(ctx context.Context, res extract.ExtractionResult) Parsed {
	logger := common.LoggerFromContext(ctx, s.Logger)

	start := time.Now()
	frags := s.Parser.Parse(res)
	logger.Debug("pipeline.parse.ok", "fragments", len(frags), "elapsed_ms", time.Since(start).Milliseconds())

	start = time.Now()
	rec := s.Normalizer.Normalize(frags)
	logger.Debug("pipeline.normalize.ok",
		"experience", len(rec.Experience),
		"education", len(rec.Education),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	scores := s.Scorer.Score(rec)
	logger.Debug("pipeline.score.ok", "core_pct", scores.CorePercentage, "global_pct", scores.GlobalPercentage)

	return Parsed{Record: rec, Scores: scores, Fragments: frags}
}
