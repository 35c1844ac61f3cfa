// Package ingest finds résumé files on disk for batch and watch runs.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/extract"
)

// File is one discovered document. Its bytes are read again by Load, so a scan holds no
// document in memory.
type File struct {
	Path         string
	Ext          string
	Size         int64
	HashHex      string // sha256 of the content
	ModTime      time.Time
	Deduplicated bool // same content as an earlier file of the scan
	Err          string
}

// Load reads the file as a pipeline input.
func (f File) Load() (extract.RawDocument, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return extract.RawDocument{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return extract.RawDocument{
		Data:      data,
		MediaType: constants.MediaTypeForExt(f.Ext),
		Name:      filepath.Base(f.Path),
	}, nil
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the batch command depends on.
type Ingestor interface {
	// IngestPath checks and hashes a single file.
	IngestPath(ctx context.Context, path string) (File, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]File, DirStats, error)
}
