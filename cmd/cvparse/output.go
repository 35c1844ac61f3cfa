package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/pipeline"
)

func parseStrategy(s string) (constants.Strategy, error) {
	st, ok := constants.ParseStrategy(s)
	if !ok {
		return "", common.InvalidArgumentErrorf("unknown strategy %q (want local or external)", s)
	}
	return st, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// jsonFileName maps a document under root to a flat output name:
// "team/a/cv.pdf" becomes "team__a__cv.json".
func jsonFileName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "__") + ".json"
}

func writeResultFile(dir, name string, res pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := writeJSON(f, res, true); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
