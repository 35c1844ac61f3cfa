package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/joseph-ayodele/cv-parser/constants"
)

// PdftotextSource reads the PDF's embedded text layer with poppler's pdftotext.
// The document is streamed on stdin; nothing touches the filesystem.
type PdftotextSource struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

func NewPdftotextSource(bin string, runner Runner, logger *slog.Logger) *PdftotextSource {
	if logger == nil {
		logger = slog.Default()
	}
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &PdftotextSource{bin: bin, runner: runner, logger: logger}
}

func (s *PdftotextSource) Name() constants.Strategy { return constants.StrategyLocal }

func (s *PdftotextSource) Available() error {
	if _, err := s.runner.LookPath(s.bin); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, s.bin, err)
	}
	return nil
}

func (s *PdftotextSource) Pages(ctx context.Context, data []byte, _ string) ([]string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix - -
	out, errb, err := s.runner.Run(ctx, bytes.NewReader(data), s.bin, s.logger,
		"-layout", "-enc", "UTF-8", "-eol", "unix", "-", "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(KindExternalServiceUnavailable, "local", "pdftotext interrupted", ctxErr)
		}
		return nil, newError(KindUnsupportedDocument, "local",
			"pdftotext could not read the document: "+firstLine(string(errb)), err)
	}
	return splitPages(string(out)), nil
}

// splitPages cuts pdftotext output on form feeds; the trailing feed after the last page
// does not start a page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return truncate(s, 200)
}
