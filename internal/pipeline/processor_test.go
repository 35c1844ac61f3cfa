package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cv-parser/constants"
	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/extract"
	"github.com/joseph-ayodele/cv-parser/internal/normalize"
	"github.com/joseph-ayodele/cv-parser/internal/parse"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
	"github.com/joseph-ayodele/cv-parser/internal/score"
	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

const resumeText = `Mario Rossi
Via Roma 10, 20121 Milano (MI)
Tel: +39 333 123 4567
mario.rossi@example.com

ESPERIENZA PROFESSIONALE

Software Engineer @ ACME S.p.A.
03/2019 – Present
• Developed microservices in Go

Junior Developer - Beta Srl, Torino
01/2017 - 02/2019
Maintained legacy Java applications.

ISTRUZIONE

Laurea in Informatica
Università di Bologna
2012 - 2016

COMPETENZE TECNICHE
Linguaggi: Go, Python, Java
Docker, Kubernetes, PostgreSQL
`

var pdfDoc = extract.RawDocument{
	Data:      []byte("%PDF-1.4\n%%EOF\n"),
	MediaType: constants.MediaTypePDF,
	Name:      "mario-rossi.pdf",
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubExtractor struct {
	res extract.ExtractionResult
	err error

	gotStrategy constants.Strategy
	gotHint     string
	gotReqID    string
}

func (s *stubExtractor) Extract(ctx context.Context, _ extract.RawDocument, strategy constants.Strategy, hint string) (extract.ExtractionResult, error) {
	s.gotStrategy, s.gotHint = strategy, hint
	s.gotReqID = common.RequestIDFromContext(ctx)
	return s.res, s.err
}

func newStubProcessor(tx TextExtractor) *Processor {
	v := vocab.MustDefault()
	logger := quietLogger()
	return NewProcessor(logger,
		NewExtractStage(tx, logger),
		NewParseStage(parse.NewParser(v, logger), normalize.NewNormalizer(v, logger), score.Default(), logger),
	)
}

// textRunner plays pdftotext: it prints a fixed text layer.
type textRunner struct {
	stdout string
}

func (r textRunner) LookPath(name string) (string, error) { return "/usr/bin/" + name, nil }

func (r textRunner) Run(_ context.Context, stdin io.Reader, _ string, _ *slog.Logger, _ ...string) ([]byte, []byte, error) {
	if stdin != nil {
		_, _ = io.Copy(io.Discard, stdin)
	}
	return []byte(r.stdout), nil, nil
}

func ocrServer(t *testing.T, delay time.Duration, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"ParsedResults":[{"ParsedText":%q,"FileParseExitCode":1}],"OCRExitCode":1,"IsErroredOnProcessing":false,"ErrorMessage":null}`, text)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(endpoint string) *common.Config {
	return &common.Config{
		Extract: common.ExtractConfig{DefaultStrategy: "local", Pdftotext: "pdftotext"},
		OCR:     common.OCRConfig{Endpoint: endpoint, APIKey: "test", Engine: 2, Timeout: 2 * time.Second},
		Batch:   common.BatchConfig{Workers: 1},
		Log:     common.LogConfig{Level: "error", Format: "text"},
	}
}

func TestProcess_EndToEnd(t *testing.T) {
	p, err := New(testConfig(""), quietLogger(), extract.WithRunner(textRunner{stdout: resumeText}))
	require.NoError(t, err)

	res, err := p.Process(context.Background(), Request{Document: pdfDoc})
	require.NoError(t, err)

	rec := res.Record
	assert.Equal(t, "Mario", rec.Identity.FirstName)
	assert.Equal(t, "Rossi", rec.Identity.LastName)
	assert.Equal(t, "mario.rossi@example.com", rec.Contacts.Email)
	assert.Equal(t, "Italy", rec.Contacts.Address.Country)
	assert.Len(t, rec.Experience, 2)
	assert.Len(t, rec.Education, 1)
	assert.Contains(t, rec.TechnicalSkills.ProgrammingLanguages, "Go")
	require.NoError(t, schema.Validate(rec))

	assert.GreaterOrEqual(t, res.Scores.CorePercentage, 75)
	assert.Greater(t, res.Scores.GlobalPercentage, 0)
	assert.Less(t, res.Scores.GlobalPercentage, 100)

	assert.NotEmpty(t, res.Meta.RequestID)
	assert.Equal(t, constants.StrategyLocal, res.Meta.Strategy)
	assert.Equal(t, 1, res.Meta.Pages)
	assert.Equal(t, "mario-rossi.pdf", res.Meta.Name)
	assert.Equal(t, constants.SectionHeader, res.Meta.Sections[0])
	assert.Equal(t, len(res.Meta.Sections), res.Meta.Fragments)
}

func TestProcess_ScannedDocumentNeedsExternal(t *testing.T) {
	srv := ocrServer(t, 0, "Anna Verdi\nanna.verdi@example.it\n")
	p, err := New(testConfig(srv.URL), quietLogger(), extract.WithRunner(textRunner{stdout: "\f"}))
	require.NoError(t, err)

	_, err = p.Process(context.Background(), Request{Document: pdfDoc, Strategy: constants.StrategyLocal})
	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrUnsupportedDocument), "got %v", err)

	res, err := p.Process(context.Background(), Request{Document: pdfDoc, Strategy: constants.StrategyExternal, LanguageHint: "it"})
	require.NoError(t, err)
	assert.Equal(t, constants.StrategyExternal, res.Meta.Strategy)
	assert.Equal(t, "Anna", res.Record.Identity.FirstName)
	assert.Equal(t, "anna.verdi@example.it", res.Record.Contacts.Email)
	assert.Equal(t, "Italy", res.Record.Contacts.Address.Country)
}

func TestProcess_ExternalTimeout(t *testing.T) {
	srv := ocrServer(t, time.Second, "late")
	cfg := testConfig(srv.URL)
	cfg.OCR.Timeout = 50 * time.Millisecond
	p, err := New(cfg, quietLogger())
	require.NoError(t, err)

	_, err = p.Process(context.Background(), Request{Document: pdfDoc, Strategy: constants.StrategyExternal})
	require.Error(t, err)
	assert.Equal(t, extract.KindExternalServiceUnavailable, extract.KindOf(err))
}

func TestProcess_ExtractionErrorUnchanged(t *testing.T) {
	want := &extract.Error{Kind: extract.KindEmptyResult, Op: "external", Msg: "OCR returned no text"}
	stub := &stubExtractor{err: want}

	res, err := newStubProcessor(stub).Process(context.Background(), Request{Document: pdfDoc})
	require.Error(t, err)

	var got *extract.Error
	require.ErrorAs(t, err, &got)
	assert.Same(t, want, got)
	assert.Equal(t, schema.New(), res.Record)
	assert.NotEmpty(t, res.Meta.RequestID)
}

func TestProcess_PassesRequestThrough(t *testing.T) {
	stub := &stubExtractor{res: extract.ExtractionResult{
		Text: "Anna Verdi", Pages: []string{"Anna Verdi"}, StrategyUsed: constants.StrategyExternal,
		Warnings: []string{"local text extraction unavailable"},
	}}
	ctx := common.WithRequestID(context.Background(), "req-123")

	res, err := newStubProcessor(stub).Process(ctx, Request{Document: pdfDoc, Strategy: constants.StrategyLocal, LanguageHint: "fr"})
	require.NoError(t, err)

	assert.Equal(t, constants.StrategyLocal, stub.gotStrategy)
	assert.Equal(t, "fr", stub.gotHint)
	assert.Equal(t, "req-123", stub.gotReqID)
	assert.Equal(t, "req-123", res.Meta.RequestID)
	assert.Equal(t, constants.StrategyExternal, res.Meta.Strategy)
	assert.Equal(t, []string{"local text extraction unavailable"}, res.Meta.Warnings)
}

func TestProcess_SparseTextStillSucceeds(t *testing.T) {
	stub := &stubExtractor{res: extract.ExtractionResult{
		Text: "%%%% ???? ####", Pages: []string{"%%%% ???? ####"}, StrategyUsed: constants.StrategyLocal,
	}}
	res, err := newStubProcessor(stub).Process(context.Background(), Request{Document: pdfDoc})
	require.NoError(t, err)
	assert.Zero(t, res.Scores.CorePercentage)
	require.NoError(t, schema.Validate(res.Record))
}

func TestResultJSON(t *testing.T) {
	r := Result{
		Record: schema.New(),
		Scores: score.Report{CorePercentage: 38, GlobalPercentage: 8},
		Meta:   Meta{RequestID: "req-1", Strategy: constants.StrategyLocal, Pages: 2},
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	require.Contains(t, got, "record")
	require.Contains(t, got, "meta")

	assert.Contains(t, got["record"], "anagrafica")
	assert.NotContains(t, got["record"], "completezza_core_pct")
	assert.Equal(t, 38.0, got["meta"]["completezza_core_pct"])
	assert.Equal(t, 8.0, got["meta"]["completezza_globale_pct"])
	assert.Equal(t, "req-1", got["meta"]["req_id"])
	assert.Equal(t, []any{}, got["meta"]["warnings"])
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := testConfig("")
	cfg.Score.CoreFields = []string{"no.such.field"}
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	cfg = testConfig("")
	cfg.Extract.DefaultStrategy = "carrier-pigeon"
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	cfg = testConfig("")
	cfg.Vocabulary.File = "/does/not/exist.yaml"
	_, err = New(cfg, nil)
	var appErr *common.AppError
	assert.ErrorAs(t, err, &appErr)
}
