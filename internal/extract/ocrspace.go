package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/cv-parser/constants"
)

const maxOCRResponse = 32 << 20

// OCRConfig configures the OCR.space-compatible client.
type OCRConfig struct {
	Endpoint string
	APIKey   string
	Engine   int           // 1, 2 or 3; 2 supports automatic language detection
	Timeout  time.Duration // bounds one request; 0 = context only
}

// OCRSpaceSource sends the whole PDF to a remote OCR service and returns its per-page text.
type OCRSpaceSource struct {
	cfg    OCRConfig
	client *http.Client
	logger *slog.Logger
}

func NewOCRSpaceSource(cfg OCRConfig, client *http.Client, logger *slog.Logger) *OCRSpaceSource {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Engine <= 0 {
		cfg.Engine = 2
	}
	return &OCRSpaceSource{cfg: cfg, client: client, logger: logger}
}

func (s *OCRSpaceSource) Name() constants.Strategy { return constants.StrategyExternal }

func (s *OCRSpaceSource) Available() error {
	if strings.TrimSpace(s.cfg.Endpoint) == "" {
		return fmt.Errorf("%w: no OCR endpoint configured", ErrBackendUnavailable)
	}
	return nil
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText        string `json:"ParsedText"`
		FileParseExitCode json.RawMessage
		ErrorMessage      string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	OCRExitCode           json.RawMessage `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"` // string, []string or null
}

func (r ocrSpaceResponse) errorMessage() string {
	if len(r.ErrorMessage) == 0 {
		return "processing failed"
	}
	var one string
	if err := json.Unmarshal(r.ErrorMessage, &one); err == nil && one != "" {
		return one
	}
	var many []string
	if err := json.Unmarshal(r.ErrorMessage, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return "processing failed"
}

func (s *OCRSpaceSource) Pages(ctx context.Context, data []byte, languageHint string) ([]string, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	reqID := uuid.New().String()
	start := time.Now()
	lang := ocrLanguage(languageHint, s.cfg.Engine)

	body, contentType, err := s.buildForm(data, lang)
	if err != nil {
		s.logger.Error("ocr.http.encode_error", "req_id", reqID, "error", err)
		return nil, newError(KindExternalServiceUnavailable, "external", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, body)
	if err != nil {
		s.logger.Error("ocr.http.build_request_error", "req_id", reqID, "error", err)
		return nil, newError(KindExternalServiceUnavailable, "external", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	if s.cfg.APIKey != "" {
		req.Header.Set("apikey", s.cfg.APIKey)
	}

	s.logger.Info("ocr.http.request",
		"req_id", reqID,
		"url", s.cfg.Endpoint,
		"content_length", body.Len(),
		"language", lang,
		"engine", s.cfg.Engine,
	)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("ocr.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		msg := "request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "request timed out"
		}
		return nil, newError(KindExternalServiceUnavailable, "external", msg, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			s.logger.Warn("ocr.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxOCRResponse))
	s.logger.Info("ocr.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		return nil, newError(KindExternalServiceUnavailable, "external", "read response", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, newError(KindExternalServiceUnavailable, "external",
			fmt.Sprintf("non-2xx status: %d", resp.StatusCode), nil)
	}

	var parsed ocrSpaceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, newError(KindExternalServiceUnavailable, "external", "decode response", err)
	}
	if parsed.IsErroredOnProcessing {
		return nil, newError(KindExternalServiceUnavailable, "external", parsed.errorMessage(), nil)
	}

	pages := make([]string, 0, len(parsed.ParsedResults))
	for _, pr := range parsed.ParsedResults {
		pages = append(pages, pr.ParsedText)
	}
	return pages, nil
}

func (s *OCRSpaceSource) buildForm(data []byte, lang string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"language", lang},
		{"OCREngine", strconv.Itoa(s.cfg.Engine)},
		{"isTable", "true"},
		{"scale", "true"},
		{"detectOrientation", "true"},
		{"isOverlayRequired", "false"},
		{"filetype", "PDF"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	part, err := mw.CreateFormFile("file", "document.pdf")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// OCR.space uses its own three-letter codes, mostly ISO 639-2/B.
var ocrLanguages = map[string]string{
	"ar": "ara", "bg": "bul", "zh": "chs", "hr": "hrv", "cs": "cze", "da": "dan",
	"nl": "dut", "en": "eng", "fi": "fin", "fr": "fre", "de": "ger", "el": "gre",
	"hu": "hun", "it": "ita", "ja": "jpn", "ko": "kor", "pl": "pol", "pt": "por",
	"ru": "rus", "sl": "slv", "es": "spa", "sv": "swe", "tr": "tur",
}

// ocrLanguage maps a language hint ("it", "it-IT", "ITA") to the service's code. Without a
// usable hint engine 2 detects the language itself; the older engines need one.
func ocrLanguage(hint string, engine int) string {
	fallback := "eng"
	if engine == 2 {
		fallback = "auto"
	}
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return fallback
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return fallback
	}
	base, conf := tag.Base()
	if conf == language.No {
		return fallback
	}
	if code, ok := ocrLanguages[base.String()]; ok {
		return code
	}
	return fallback
}
