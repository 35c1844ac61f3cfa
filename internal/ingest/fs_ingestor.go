package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/cv-parser/constants"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	MaxBytes    int64               // 0 = no limit
	Logger      *slog.Logger
}

func NewFSIngestor(logger *slog.Logger, maxBytes int64) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{MaxBytes: maxBytes, Logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext, i.AllowedExts) {
		return File{}, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return File{}, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.Logger.Warn("ingest.close_error", "path", abs, "error", err)
		}
	}(f)

	info, err := f.Stat()
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", abs)
	}
	if i.MaxBytes > 0 && info.Size() > i.MaxBytes {
		return File{}, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), i.MaxBytes)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return File{}, fmt.Errorf("hash: %w", err)
	}

	return File{
		Path:    abs,
		Ext:     ext,
		Size:    info.Size(),
		HashHex: hex.EncodeToString(h.Sum(nil)),
		ModTime: info.ModTime().UTC(),
	}, nil
}
