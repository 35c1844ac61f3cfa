package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cv-parser/constants"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "%PDF-1.4 alpha")
	writeFile(t, filepath.Join(root, "b.PDF"), "%PDF-1.4 beta")
	writeFile(t, filepath.Join(root, "sub", "c.pdf"), "%PDF-1.4 alpha")
	writeFile(t, filepath.Join(root, ".hidden", "d.pdf"), "%PDF-1.4 delta")
	writeFile(t, filepath.Join(root, ".e.pdf"), "%PDF-1.4 echo")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a resume")

	ing := NewFSIngestor(nil, 0)
	files, stats, err := ing.IngestDirectory(context.Background(), root, true)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "a.pdf", filepath.Base(files[0].Path))
	assert.Equal(t, "b.PDF", filepath.Base(files[1].Path))
	assert.Equal(t, "c.pdf", filepath.Base(files[2].Path))
	assert.Equal(t, "pdf", files[1].Ext)

	assert.False(t, files[0].Deduplicated)
	assert.True(t, files[2].Deduplicated)
	assert.Equal(t, files[0].HashHex, files[2].HashHex)
	assert.Len(t, files[0].HashHex, 64)

	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Zero(t, stats.Failed)

	all, stats, err := ing.IngestDirectory(context.Background(), root, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, uint32(5), stats.Matched)
}

func TestIngestDirectory_Errors(t *testing.T) {
	ing := NewFSIngestor(nil, 4)

	_, _, err := ing.IngestDirectory(context.Background(), "  ", true)
	require.Error(t, err)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "big.pdf"), "%PDF-1.4 too large")
	files, stats, err := ing.IngestDirectory(context.Background(), root, true)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Err, "limit")
	assert.Equal(t, uint32(1), stats.Failed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ing.IngestDirectory(ctx, root, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestPath(t *testing.T) {
	root := t.TempDir()
	pdf := filepath.Join(root, "cv.pdf")
	writeFile(t, pdf, "%PDF-1.4 body")
	writeFile(t, filepath.Join(root, "cv.docx"), "zip")

	ing := NewFSIngestor(nil, 0)
	f, err := ing.IngestPath(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, int64(len("%PDF-1.4 body")), f.Size)

	doc, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", doc.Name)
	assert.Equal(t, constants.MediaTypePDF, doc.MediaType)
	assert.Equal(t, []byte("%PDF-1.4 body"), doc.Data)

	_, err = ing.IngestPath(context.Background(), filepath.Join(root, "cv.docx"))
	assert.ErrorContains(t, err, "unsupported")
	_, err = ing.IngestPath(context.Background(), filepath.Join(root, "missing.pdf"))
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.True(t, AllowedExt(".PDF", nil))
	assert.False(t, AllowedExt("docx", nil))
	assert.True(t, AllowedExt("docx", map[string]struct{}{"docx": {}}))

	assert.True(t, IsHidden("/tmp/.cache"))
	assert.False(t, IsHidden("/tmp/cache"))
	assert.False(t, IsHidden("."))
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "old.pdf"), "%PDF-1.4 old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, SkipHidden: true})
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("no watcher event")
			return ""
		}
	}
	assert.Equal(t, "old.pdf", filepath.Base(next()))

	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, "new.pdf"), "%PDF-1.4 new")
	assert.Equal(t, "new.pdf", filepath.Base(next()))

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
