package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/extract"
)

const cvText = `Anna Bianchi
anna.bianchi@example.it
+39 333 765 4321

ESPERIENZA PROFESSIONALE
Data Analyst - Gamma Srl
04/2020 - Present

ISTRUZIONE
Laurea in Statistica
Università di Padova
2015 - 2019
`

// fakePdftotext installs a script that ignores its input and prints cvText.
func fakePdftotext(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "pdftotext")
	body := "#!/bin/sh\ncat > /dev/null\ncat <<'CV'\n" + cvText + "CV\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("PDFTOTEXT_BIN", script)
	t.Setenv("EXTRACT_STRATEGY", "local")
	t.Setenv("LOG_LEVEL", "error")
}

func writePDF(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"+content+"\n%%EOF\n"), 0o644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	fakePdftotext(t)
	pdf := filepath.Join(t.TempDir(), "anna.pdf")
	writePDF(t, pdf, "anna")

	out, err := execute(t, "parse", pdf, "--validate", "--compact")
	require.NoError(t, err)

	var got struct {
		Record map[string]any `json:"record"`
		Meta   map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	identity := got.Record["anagrafica"].(map[string]any)
	assert.Equal(t, "Anna", identity["nome"])
	assert.Equal(t, "Bianchi", identity["cognome"])
	assert.Equal(t, "local", got.Meta["strategy"])
	assert.Equal(t, "anna.pdf", got.Meta["name"])
	assert.Greater(t, got.Meta["completezza_core_pct"], float64(0))
}

func TestParseCommand_Errors(t *testing.T) {
	fakePdftotext(t)
	dir := t.TempDir()

	_, err := execute(t, "parse", filepath.Join(dir, "nope.pdf"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = execute(t, "parse", txt)
	assert.Error(t, err)

	pdf := filepath.Join(dir, "cv.pdf")
	writePDF(t, pdf, "x")
	_, err = execute(t, "parse", pdf, "--strategy", "carrier-pigeon")
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestBatchCommand(t *testing.T) {
	fakePdftotext(t)
	base := t.TempDir()
	inbox := filepath.Join(base, "inbox")
	writePDF(t, filepath.Join(inbox, "anna.pdf"), "anna")
	writePDF(t, filepath.Join(inbox, "team", "luca.pdf"), "luca")
	writePDF(t, filepath.Join(inbox, "copy.pdf"), "anna")
	writePDF(t, filepath.Join(inbox, ".hidden", "skip.pdf"), "skip")

	records := filepath.Join(base, "records")
	report := filepath.Join(base, "out.xlsx")
	out, err := execute(t, "batch", inbox, "--out", report, "--json-dir", records, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3 documents, 0 failed, 1 duplicates")

	assert.FileExists(t, filepath.Join(records, "anna.json"))
	assert.FileExists(t, filepath.Join(records, "team__luca.json"))
	assert.NoFileExists(t, filepath.Join(records, "copy.json"))

	f, err := excelize.OpenFile(report)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Documents")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "object", s["type"])
	assert.Contains(t, s["properties"], "anagrafica")
}

func TestJSONFileName(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"/in", "/in/cv.pdf", "cv.json"},
		{"/in", "/in/team/a/cv.PDF", "team__a__cv.json"},
		{"/in", "/elsewhere/cv.pdf", "cv.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, jsonFileName(tt.root, tt.path), tt.path)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(common.InvalidArgumentErrorf("unknown strategy %q", "x")))
	assert.Equal(t, 3, exitCode(&extract.Error{Kind: extract.KindExternalServiceUnavailable, Msg: "timeout"}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}
