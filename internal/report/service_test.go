package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/extract"
	"github.com/joseph-ayodele/cv-parser/internal/pipeline"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
	"github.com/joseph-ayodele/cv-parser/internal/score"
)

func sampleRows() []Row {
	rec := schema.New()
	rec.Identity.FirstName = "Mario"
	rec.Identity.LastName = "Rossi"
	rec.Contacts.Mobile = "+393331234567"
	rec.Contacts.Address.Country = "Italy"
	rec.Experience = []schema.Experience{{Company: "ACME"}, {Company: "Beta"}}

	return []Row{
		{
			Path:    "/cv/mario.pdf",
			HashHex: "abc",
			Result: pipeline.Result{
				Record: rec,
				Scores: score.Report{CorePercentage: 75, GlobalPercentage: 19},
				Meta:   pipeline.Meta{Strategy: constants.StrategyLocal, Pages: 2, Warnings: []string{"pdf structure check failed"}},
			},
			Missing: []string{"istruzione", "competenze_tecniche"},
			Elapsed: 120 * time.Millisecond,
		},
		{
			Path: "/cv/scan.pdf",
			Err:  &extract.Error{Kind: extract.KindUnsupportedDocument, Msg: "no extractable text layer"},
		},
		{Path: "/cv/copy.pdf", HashHex: "abc", Deduplicated: true},
		{Path: "/cv/locked.pdf", Err: errors.New("permission denied")},
	}
}

func TestExportXLSX(t *testing.T) {
	b, err := NewService(nil).ExportXLSX(context.Background(), sampleRows())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{documentsSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(documentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "File", rows[0][0])
	assert.Equal(t, "Elapsed (ms)", rows[0][17])

	ok := rows[1]
	assert.Equal(t, "/cv/mario.pdf", ok[0])
	assert.Equal(t, "ok", ok[2])
	assert.Equal(t, "local", ok[3])
	assert.Equal(t, "2", ok[4])
	assert.Equal(t, "75", ok[5])
	assert.Equal(t, "19", ok[6])
	assert.Equal(t, "istruzione, competenze_tecniche", ok[7])
	assert.Equal(t, "Mario", ok[8])
	assert.Equal(t, "+393331234567", ok[11])
	assert.Equal(t, "Italy", ok[12])
	assert.Equal(t, "2", ok[13])
	assert.Equal(t, "pdf structure check failed", ok[16])
	assert.Equal(t, "120", ok[17])

	assert.Equal(t, "UnsupportedDocument", rows[2][2])
	assert.Contains(t, rows[2][16], "no extractable text layer")
	assert.Equal(t, "duplicate", rows[3][2])
	assert.Equal(t, "error", rows[4][2])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Documents", "4"}, summary[0])
	assert.Equal(t, []string{"Processed", "1"}, summary[1])
	assert.Equal(t, []string{"Failed", "2"}, summary[2])
	assert.Equal(t, []string{"Duplicates", "1"}, summary[3])
	assert.Equal(t, []string{"Average Core %", "75"}, summary[4])
}

func TestExportXLSX_Empty(t *testing.T) {
	b, err := NewService(nil).ExportXLSX(context.Background(), nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(documentsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExportXLSX_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(nil).ExportXLSX(ctx, sampleRows())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "àb…", truncate("àbcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 0))
}
