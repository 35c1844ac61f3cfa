package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/cv-parser/constants"
)

// IngestDirectory walks root, skips hidden if requested, and calls IngestPath for each
// matching file. Files repeating the content of an earlier one are returned with
// Deduplicated set. Results are in lexical path order.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]File, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []File
	var stats DirStats
	seen := map[string]struct{}{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, File{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(constants.NormalizeExt(filepath.Ext(path)), i.AllowedExts) {
			return nil
		}
		stats.Matched++

		f, err := i.IngestPath(ctx, path)
		if err != nil {
			i.Logger.Warn("ingest.file_failed", "path", path, "error", err)
			results = append(results, File{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		if _, dup := seen[f.HashHex]; dup {
			f.Deduplicated = true
			stats.Deduplicated++
		}
		seen[f.HashHex] = struct{}{}
		results = append(results, f)
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	i.Logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated,
	)
	return results, stats, nil
}
