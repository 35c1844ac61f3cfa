package common

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("OCR_TIMEOUT", "")
	t.Setenv("SCORE_CORE_FIELDS", "")
	t.Setenv("OCR_ENDPOINT", "")
	t.Setenv("OCR_API_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Extract.DefaultStrategy)
	assert.Empty(t, cfg.OCR.Endpoint, "external OCR is opt-in")
	assert.Empty(t, cfg.OCR.APIKey)
	assert.Equal(t, "pdftotext", cfg.Extract.Pdftotext)
	assert.Equal(t, 60*time.Second, cfg.OCR.Timeout)
	assert.Nil(t, cfg.Score.CoreFields)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("CVP_TEST_STRATEGY=external\nSCORE_CORE_FIELDS=anagrafica.nome, contatti.email\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	// godotenv never overrides variables that exist, even when empty
	t.Setenv("SCORE_CORE_FIELDS", "")
	require.NoError(t, os.Unsetenv("SCORE_CORE_FIELDS"))
	t.Cleanup(func() { _ = os.Unsetenv("CVP_TEST_STRATEGY") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "external", os.Getenv("CVP_TEST_STRATEGY"))
	assert.Equal(t, []string{"anagrafica.nome", "contatti.email"}, cfg.Score.CoreFields)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{
		Extract: ExtractConfig{DefaultStrategy: "carrier-pigeon", Pdftotext: "pdftotext"},
		OCR:     OCRConfig{Endpoint: "not a url", Timeout: 0},
		Batch:   BatchConfig{Workers: 0},
		Log:     LogConfig{Format: "text"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "EXTRACT_STRATEGY")
	assert.Contains(t, err.Error(), "OCR_ENDPOINT")
	assert.Contains(t, err.Error(), "BATCH_WORKERS")
	assert.Equal(t, codes.InvalidArgument, StatusFromError(err).Code())
}

func TestStatusFromError(t *testing.T) {
	assert.Equal(t, codes.OK, StatusFromError(nil).Code())
	assert.Equal(t, codes.InvalidArgument, StatusFromError(InvalidArgumentError("bad")).Code())
	assert.Equal(t, codes.Internal, StatusFromError(assert.AnError).Code())
	assert.Equal(t, codes.NotFound, StatusFromError(NewAppError("IO", "open", ErrNotFound)).Code())
}

func TestContextHelpers(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	assert.Same(t, logger, LoggerFromContext(WithLogger(ctx, logger), nil))
	assert.Same(t, logger, LoggerFromContext(ctx, logger))
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LogConfig{Level: "debug", Format: "json"}, &buf).Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
