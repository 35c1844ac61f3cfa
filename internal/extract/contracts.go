package extract

import (
	"context"

	"github.com/joseph-ayodele/cv-parser/constants"
)

// RawDocument is the caller-owned input. The pipeline never mutates Data.
type RawDocument struct {
	Data      []byte
	MediaType string
	Name      string // informational only (logs, reports)
}

// ExtractionResult is the text of a document, one entry per page.
type ExtractionResult struct {
	Text         string
	Pages        []string
	StrategyUsed constants.Strategy
	Warnings     []string
}

// PageSource is one extraction strategy: PDF bytes and an optional language hint in,
// text per page out.
type PageSource interface {
	Name() constants.Strategy
	// Available reports whether the backend can run in this process.
	Available() error
	Pages(ctx context.Context, data []byte, languageHint string) ([]string, error)
}
